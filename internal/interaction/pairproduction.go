package interaction

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/mlindner/cosray/internal/core"
	"github.com/mlindner/cosray/internal/fields"
	"github.com/mlindner/cosray/internal/rng"
	"github.com/mlindner/cosray/internal/tables"
)

// power-law exponent for rate extrapolation above the tabulated domain
const pairExtrapolation = -0.6

// spectrum binning of the secondary-electron tables: Lorentz-factor bins at
// log10(gamma) = 6.05 + 0.1 i, energy bins at log10(E/eV) = 6.95 + 0.1 j.
const (
	spectrumLgOffset = 6.05
	spectrumLgEeMin  = 6.95
	spectrumBinWidth = 0.1
)

// ElectronPairProduction is the continuous-loss realization of the
// stochastic interaction pattern: the tabulated rate is a deterministic
// fractional energy-loss rate per distance. Secondary electron/positron
// pairs are optionally sampled from a tabulated cumulative spectrum.
type ElectronPairProduction struct {
	photonField   fields.PhotonField
	dataDir       string
	haveElectrons bool
	limit         float64
	tag           string
	random        *rng.Random
	logger        *slog.Logger

	lossRate *tables.LossTable
	spectrum *tables.Spectrum
}

// NewElectronPairProduction eagerly loads the loss-rate table (and, when
// haveElectrons is set, the secondary spectrum) for the given photon field
// from dataDir. Missing or unreadable tables are configuration errors.
func NewElectronPairProduction(photonField fields.PhotonField, dataDir string, haveElectrons bool, limit float64, random *rng.Random, logger *slog.Logger) (*ElectronPairProduction, error) {
	e := &ElectronPairProduction{
		dataDir:       dataDir,
		haveElectrons: haveElectrons,
		limit:         limit,
		tag:           "EPP",
		random:        random,
		logger:        logger,
	}
	if err := e.SetPhotonField(photonField); err != nil {
		return nil, err
	}
	return e, nil
}

// SetPhotonField replaces the photon background and reloads all tables.
// Must not be called concurrently with Process.
func (e *ElectronPairProduction) SetPhotonField(f fields.PhotonField) error {
	name := f.Name()
	lossRate, err := tables.LoadLossTable(filepath.Join(e.dataDir, "ElectronPairProduction", "lossrate_"+name+".txt"))
	if err != nil {
		return fmt.Errorf("pair production: %w", err)
	}
	e.photonField = f
	e.lossRate = lossRate
	if e.haveElectrons {
		return e.loadSpectrum()
	}
	return nil
}

func (e *ElectronPairProduction) loadSpectrum() error {
	name := e.photonField.Name()
	if len(name) > 3 {
		name = name[:3]
	}
	spectrum, err := tables.LoadSpectrum(filepath.Join(e.dataDir, "ElectronPairProduction", "spectrum_"+name+".txt"))
	if err != nil {
		return fmt.Errorf("pair production: %w", err)
	}
	e.spectrum = spectrum
	return nil
}

// SetHaveElectrons toggles secondary pair production, loading the spectrum
// table on demand.
func (e *ElectronPairProduction) SetHaveElectrons(have bool) error {
	e.haveElectrons = have
	if have && e.spectrum == nil {
		return e.loadSpectrum()
	}
	return nil
}

func (e *ElectronPairProduction) SetLimit(limit float64) { e.limit = limit }
func (e *ElectronPairProduction) Limit() float64         { return e.limit }

func (e *ElectronPairProduction) SetInteractionTag(tag string) { e.tag = tag }
func (e *ElectronPairProduction) InteractionTag() string       { return e.tag }

// LossLength returns the fractional energy-loss length for a nucleus at the
// given Lorentz factor and redshift, +Inf when the process does not apply.
func (e *ElectronPairProduction) LossLength(id int, gamma, z float64) float64 {
	zn := core.ChargeNumber(id)
	if zn == 0 {
		return math.Inf(1) // no pair production on uncharged particles
	}

	gamma *= 1 + z
	if gamma < e.lossRate.MinGamma() {
		return math.Inf(1) // below energy threshold
	}
	rate := e.lossRate.Rate(gamma, pairExtrapolation)

	// scale with Z^2/A and the cosmological evolution of the background,
	// rate per proper distance
	a := core.NuclearMass(id) / core.MassProton
	rate *= float64(zn*zn) / a * (1 + z) * (1 + z) * (1 + z) * e.photonField.RedshiftScaling(z)
	return 1 / rate
}

// Process applies the deterministic energy loss over the current step and
// optionally draws secondary pairs against the lost-energy budget.
func (e *ElectronPairProduction) Process(c *core.Candidate) error {
	id := c.Current.ID
	if !core.IsNucleus(id) {
		return nil
	}

	gamma := c.Current.LorentzFactor()
	z := c.Redshift
	lossLength := e.LossLength(id, gamma, z)
	if e.photonField.HasScaleRadius() {
		lossLength /= e.photonField.RadialScaling(c.Current.Position.R())
	}
	if math.IsInf(lossLength, 1) {
		return nil
	}

	step := c.CurrentStep() / (1 + z) // step size in the local frame
	loss := step / lossLength

	if e.haveElectrons {
		if err := e.samplePairs(c, gamma, c.Current.Energy*loss); err != nil {
			return err
		}
	}

	c.Current.SetLorentzFactor(gamma * (1 - loss))
	c.LimitNextStep(e.limit * lossLength)
	return nil
}

// samplePairs draws electron/positron pairs from the cumulative spectrum of
// the nearest Lorentz-factor bin until the energy budget dE is spent. A
// pair exceeding the remaining budget is accepted with probability
// dE/E_pair so the long-run expectation stays consistent.
func (e *ElectronPairProduction) samplePairs(c *core.Candidate, gamma, dE float64) error {
	i := int(math.Round((math.Log10(gamma) - spectrumLgOffset) / spectrumBinWidth))
	cdf := e.spectrum.Row(i)

	for dE > 0 {
		j := e.random.RandBin(cdf)
		ee := math.Pow(10, spectrumLgEeMin+(float64(j)+e.random.Rand())*spectrumBinWidth) * core.ElectronVolt
		// electron and positron do not share the lab-frame energy evenly in
		// general, but averaged over many draws this is consistent
		pair := 2 * ee
		if pair > dE && e.random.Rand() > dE/pair {
			break
		}
		dE -= pair

		pos := e.random.RandInterpolatedPosition(c.Previous.Position, c.Current.Position)
		if _, err := c.AddSecondary(core.Electron, ee, pos, 1, e.tag); err != nil {
			return e.secondaryError(c, err)
		}
		if _, err := c.AddSecondary(core.Positron, ee, pos, 1, e.tag); err != nil {
			return e.secondaryError(c, err)
		}
	}
	return nil
}

func (e *ElectronPairProduction) secondaryError(c *core.Candidate, err error) error {
	e.logger.Error("pair production secondary creation failed",
		"id", c.Current.ID,
		"energy", c.Current.Energy,
		"seed", e.random.Seed(),
		"error", err)
	return fmt.Errorf("pair production: %w", err)
}
