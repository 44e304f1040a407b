package core

// SI base units. All quantities in the simulation are expressed in these.
const (
	Meter    = 1.0
	Second   = 1.0
	Kilogram = 1.0
	Ampere   = 1.0
)

// Physical constants.
const (
	CLight           = 2.99792458e8 * Meter / Second
	ElementaryCharge = 1.602176634e-19 * Ampere * Second

	MassProton   = 1.67262192369e-27 * Kilogram
	MassNeutron  = 1.67492749804e-27 * Kilogram
	MassElectron = 9.1093837015e-31 * Kilogram
)

// Energy units.
const (
	ElectronVolt = 1.602176634e-19 // joule
	KeV          = 1e3 * ElectronVolt
	MeV          = 1e6 * ElectronVolt
	GeV          = 1e9 * ElectronVolt
	TeV          = 1e12 * ElectronVolt
	PeV          = 1e15 * ElectronVolt
	EeV          = 1e18 * ElectronVolt
)

// Astronomical distances.
const (
	Parsec     = 3.0856775814913673e16 * Meter
	Kiloparsec = 1e3 * Parsec
	Megaparsec = 1e6 * Parsec
	Gigaparsec = 1e9 * Parsec
)

// Magnetic field strength.
const (
	Tesla     = Kilogram / (Ampere * Second * Second)
	Gauss     = 1e-4 * Tesla
	MicroGauss = 1e-10 * Tesla
	NanoGauss  = 1e-13 * Tesla
)
