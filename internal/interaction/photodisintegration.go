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

// PhotoDisintegration is the discrete-event realization of the stochastic
// interaction pattern: interactions follow a Poisson process with a
// tabulated per-nuclide rate, channels are chosen from tabulated branching
// ratios and light fragments are emitted as secondaries. Several
// interactions may occur within one large step.
type PhotoDisintegration struct {
	photonField fields.PhotonField
	dataDir     string
	havePhotons bool
	limit       float64
	tag         string
	random      *rng.Random
	logger      *slog.Logger

	rate     *tables.NuclideRates
	branch   *tables.BranchingTable
	emission *tables.EmissionTable
}

// NewPhotoDisintegration eagerly loads rate, branching and photon-emission
// tables for the given photon field from dataDir. Missing or unreadable
// tables are configuration errors.
func NewPhotoDisintegration(photonField fields.PhotonField, dataDir string, havePhotons bool, limit float64, random *rng.Random, logger *slog.Logger) (*PhotoDisintegration, error) {
	p := &PhotoDisintegration{
		dataDir:     dataDir,
		havePhotons: havePhotons,
		limit:       limit,
		tag:         "PD",
		random:      random,
		logger:      logger,
	}
	if err := p.SetPhotonField(photonField); err != nil {
		return nil, err
	}
	return p, nil
}

// SetPhotonField replaces the photon background and reloads all tables.
// Must not be called concurrently with Process.
func (p *PhotoDisintegration) SetPhotonField(f fields.PhotonField) error {
	name := f.Name()
	short := name
	if len(short) > 3 {
		short = short[:3]
	}
	dir := filepath.Join(p.dataDir, "Photodisintegration")

	rate, err := tables.LoadNuclideRates(filepath.Join(dir, "rate_"+name+".txt"))
	if err != nil {
		return fmt.Errorf("photodisintegration: %w", err)
	}
	branch, err := tables.LoadBranchingTable(filepath.Join(dir, "branching_"+name+".txt"))
	if err != nil {
		return fmt.Errorf("photodisintegration: %w", err)
	}
	emission, err := tables.LoadEmissionTable(filepath.Join(dir, "photon_emission_"+short+".txt"))
	if err != nil {
		return fmt.Errorf("photodisintegration: %w", err)
	}

	p.photonField = f
	p.rate = rate
	p.branch = branch
	p.emission = emission
	return nil
}

func (p *PhotoDisintegration) SetHavePhotons(have bool) { p.havePhotons = have }

func (p *PhotoDisintegration) SetLimit(limit float64) { p.limit = limit }
func (p *PhotoDisintegration) Limit() float64         { return p.limit }

func (p *PhotoDisintegration) SetInteractionTag(tag string) { p.tag = tag }
func (p *PhotoDisintegration) InteractionTag() string       { return p.tag }

// Process samples disintegration events over the current step. When no
// event fires within the step the next step is limited to a fraction of the
// mean free path; the loop body runs at least once so this side effect is
// always applied.
func (p *PhotoDisintegration) Process(c *core.Candidate) error {
	step := c.CurrentStep()
	for {
		id := c.Current.ID
		if !core.IsNucleus(id) {
			return nil
		}

		a := core.MassNumber(id)
		zn := core.ChargeNumber(id)
		rates := p.rate.Rates(zn, a-zn)
		if rates == nil {
			return nil // no disintegration data for this nuclide
		}

		z := c.Redshift
		lg := math.Log10(c.Current.LorentzFactor() * (1 + z))
		if lg <= tables.LgMin || lg >= tables.LgMax {
			return nil
		}

		rate := tables.InterpolateEquidistant(lg, tables.LgMin, tables.LgMax, rates)
		// cosmological scaling, rate per comoving distance
		rate *= (1 + z) * (1 + z) * p.photonField.RedshiftScaling(z)
		// radial dependence of the photon field
		rate *= p.photonField.RadialScaling(c.Current.Position.R())

		// free-path draw; without an interaction in this step only limit
		// the next step
		randDist := -math.Log(p.random.Rand()) / rate
		if step < randDist {
			c.LimitNextStep(p.limit / rate)
			return nil
		}

		branches := p.branch.Branches(zn, a-zn)
		bin := tables.NearestIndex(lg)
		i := selectBranch(branches, bin, p.random.Rand())
		if err := p.performInteraction(c, branches[i].Channel); err != nil {
			return err
		}

		// repeat with the remaining step
		step -= randDist
		if step <= 0 {
			return nil
		}
	}
}

// performInteraction emits the channel's light fragments as secondaries
// with uniform per-nucleon energy sharing and updates the primary in place
// to the residual nuclide. The pre-interaction state is snapshotted into
// Created before the primary is mutated.
func (p *PhotoDisintegration) performInteraction(c *core.Candidate, channel int) error {
	p.logger.Debug("photodisintegration", "channel", channel, "id", c.Current.ID)

	dA, dZ := channelDeltas(channel)

	id := c.Current.ID
	a := core.MassNumber(id)
	zn := core.ChargeNumber(id)
	epa := c.Current.Energy / float64(a)

	pos := p.random.RandInterpolatedPosition(c.Previous.Position, c.Current.Position)

	// create secondaries; partially created fragments stay attached on
	// failure, dropping them silently would corrupt conservation
	for _, f := range channelFragments {
		count := digit(channel, f.place)
		for k := 0; k < count; k++ {
			fragID, err := core.NucleusID(f.a, f.z)
			if err != nil {
				return p.secondaryError(c, channel, err)
			}
			if _, err := c.AddSecondary(fragID, epa*float64(f.a), pos, 1, p.tag); err != nil {
				return p.secondaryError(c, channel, err)
			}
		}
	}

	// update the primary to the residual nuclide
	c.Created = c.Current
	residual, err := core.NucleusID(a+dA, zn+dZ)
	if err != nil {
		return p.secondaryError(c, channel, err)
	}
	c.Current.ID = residual
	c.Current.Energy = epa * float64(a+dA)

	if !p.havePhotons {
		return nil
	}
	return p.emitPhotons(c, zn, a-zn, zn+dZ, (a+dA)-(zn+dZ), pos)
}

// emitPhotons samples the discrete gamma lines of the (Z,N) -> (Zd,Nd)
// transition, each accepted with its tabulated probability at the nearest
// Lorentz-factor bin and boosted isotropically to the lab frame.
func (p *PhotoDisintegration) emitPhotons(c *core.Candidate, z, n, zd, nd int, pos core.Vector3) error {
	zr := c.Redshift
	gamma := c.Current.LorentzFactor()
	lg := math.Log10(gamma * (1 + zr))
	bin := tables.NearestIndex(lg)

	for _, line := range p.emission.Lines(z, n, zd, nd) {
		if p.random.Rand() > line.Probability[bin] {
			continue
		}
		cosTheta := 2*p.random.Rand() - 1
		eGamma := line.Energy * gamma * (1 - cosTheta)
		if _, err := c.AddSecondary(core.Photon, eGamma, pos, 1, p.tag); err != nil {
			return p.secondaryError(c, 0, err)
		}
	}
	return nil
}

// LossLength is a diagnostic: the energy-loss length equivalent of the
// disintegration rate, weighting each channel by its mean nucleon loss.
func (p *PhotoDisintegration) LossLength(id int, gamma, z float64) float64 {
	if !core.IsNucleus(id) {
		return math.Inf(1)
	}
	a := core.MassNumber(id)
	zn := core.ChargeNumber(id)
	rates := p.rate.Rates(zn, a-zn)
	if rates == nil {
		return math.Inf(1)
	}

	lg := math.Log10(gamma * (1 + z))
	if lg <= tables.LgMin || lg >= tables.LgMax {
		return math.Inf(1)
	}

	lossRate := tables.InterpolateEquidistant(lg, tables.LgMin, tables.LgMax, rates)
	// cosmological scaling, rate per proper distance
	lossRate *= (1 + z) * (1 + z) * (1 + z) * p.photonField.RedshiftScaling(z)

	// mean number of nucleons lost over all channels
	avgDA := 0.0
	for _, b := range p.branch.Branches(zn, a-zn) {
		dA, _ := channelDeltas(b.Channel)
		br := tables.InterpolateEquidistant(lg, tables.LgMin, tables.LgMax, b.Ratio)
		avgDA += br * float64(-dA)
	}

	lossRate *= avgDA / float64(a)
	return 1 / lossRate
}

func (p *PhotoDisintegration) secondaryError(c *core.Candidate, channel int, err error) error {
	p.logger.Error("photodisintegration secondary creation failed",
		"id", c.Current.ID,
		"channel", channel,
		"energy", c.Current.Energy,
		"seed", p.random.Seed(),
		"error", err)
	return fmt.Errorf("photodisintegration: %w", err)
}
