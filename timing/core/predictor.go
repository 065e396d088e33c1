package core

// BranchPredictorStats holds the counters of one predictor instance.
type BranchPredictorStats struct {
	// Predictions is the total number of direction predictions made.
	Predictions uint64
	// Correct is the number of correctly predicted directions.
	Correct uint64
	// Mispredictions is the number of wrongly predicted directions.
	Mispredictions uint64
	// BTBHits is the number of target-buffer hits.
	BTBHits uint64
	// BTBMisses is the number of target-buffer misses.
	BTBMisses uint64
}

// Accuracy returns the direction prediction accuracy as a percentage.
func (s BranchPredictorStats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Predictions) * 100
}

// MispredictionRate returns the direction misprediction rate as a percentage.
func (s BranchPredictorStats) MispredictionRate() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Predictions) * 100
}

// BTBHitRate returns the target-buffer hit rate as a percentage.
func (s BranchPredictorStats) BTBHitRate() float64 {
	total := s.BTBHits + s.BTBMisses
	if total == 0 {
		return 0
	}
	return float64(s.BTBHits) / float64(total) * 100
}

// Prediction is the front end's guess for one branch.
type Prediction struct {
	// Taken is the predicted direction.
	Taken bool
	// Target is the predicted target address, meaningful only when
	// TargetKnown is set.
	Target uint64
	// TargetKnown reports whether the target buffer supplied a target.
	TargetKnown bool
}

// Mispredicts reports whether the prediction sends fetch down the wrong
// path given the branch's actual outcome. A taken branch with an unknown
// or wrong target redirects even when the direction guess was right.
func (p Prediction) Mispredicts(taken bool, target uint64) bool {
	if taken != p.Taken {
		return true
	}
	return taken && (!p.TargetKnown || p.Target != target)
}

// btbEntry is one target-buffer slot.
type btbEntry struct {
	valid  bool
	pc     uint64
	target uint64
}

// BranchPredictor is a bimodal predictor: a table of 2-bit saturating
// counters for direction plus a direct-mapped branch target buffer.
//
// Counter states: 0 strongly not taken, 1 weakly not taken, 2 weakly
// taken, 3 strongly taken. Counters start at 2.
type BranchPredictor struct {
	bht []uint8
	btb []btbEntry

	bhtMask uint64
	btbMask uint64

	stats BranchPredictorStats
}

// NewBranchPredictor creates a predictor with the given table sizes. Sizes
// must be powers of two; zero selects the defaults (1024-entry BHT,
// 256-entry BTB).
func NewBranchPredictor(bhtSize, btbSize uint32) *BranchPredictor {
	if bhtSize == 0 {
		bhtSize = 1024
	}
	if btbSize == 0 {
		btbSize = 256
	}

	p := &BranchPredictor{
		bht:     make([]uint8, bhtSize),
		btb:     make([]btbEntry, btbSize),
		bhtMask: uint64(bhtSize - 1),
		btbMask: uint64(btbSize - 1),
	}
	for i := range p.bht {
		p.bht[i] = 2
	}

	return p
}

// Index with the low PC bits above the 4-byte instruction alignment.
func (p *BranchPredictor) bhtIndex(pc uint64) uint64 { return (pc >> 2) & p.bhtMask }
func (p *BranchPredictor) btbIndex(pc uint64) uint64 { return (pc >> 2) & p.btbMask }

// Predict guesses the direction and target of the branch at pc.
func (p *BranchPredictor) Predict(pc uint64) Prediction {
	pred := Prediction{
		Taken: p.bht[p.bhtIndex(pc)] >= 2,
	}

	if e := p.btb[p.btbIndex(pc)]; e.valid && e.pc == pc {
		pred.Target = e.target
		pred.TargetKnown = true
		p.stats.BTBHits++
	} else {
		p.stats.BTBMisses++
	}

	p.stats.Predictions++
	return pred
}

// Update trains the predictor with the resolved outcome of the branch at
// pc. Call it once per committed branch.
func (p *BranchPredictor) Update(pc uint64, taken bool, target uint64) {
	idx := p.bhtIndex(pc)
	counter := p.bht[idx]

	if (counter >= 2) == taken {
		p.stats.Correct++
	} else {
		p.stats.Mispredictions++
	}

	if taken && counter < 3 {
		p.bht[idx] = counter + 1
	}
	if !taken && counter > 0 {
		p.bht[idx] = counter - 1
	}

	if taken {
		p.btb[p.btbIndex(pc)] = btbEntry{valid: true, pc: pc, target: target}
	}
}

// Stats returns a copy of the predictor counters.
func (p *BranchPredictor) Stats() BranchPredictorStats {
	return p.stats
}

// Reset restores the power-on state: counters weakly taken, target buffer
// empty, statistics cleared.
func (p *BranchPredictor) Reset() {
	for i := range p.bht {
		p.bht[i] = 2
	}
	for i := range p.btb {
		p.btb[i] = btbEntry{}
	}
	p.stats = BranchPredictorStats{}
}
