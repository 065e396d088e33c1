package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/o3sim/timing/core"
)

var _ = Describe("BranchPredictor", func() {
	var bp *core.BranchPredictor

	BeforeEach(func() {
		bp = core.NewBranchPredictor(16, 8)
	})

	Describe("direction prediction", func() {
		It("should initially predict taken (biased)", func() {
			pred := bp.Predict(0x1000)
			Expect(pred.Taken).To(BeTrue())
		})

		It("should not know the target initially", func() {
			pred := bp.Predict(0x1000)
			Expect(pred.TargetKnown).To(BeFalse())
		})

		It("should learn an always-taken branch", func() {
			pc := uint64(0x1000)
			target := uint64(0x2000)

			for i := 0; i < 10; i++ {
				bp.Update(pc, true, target)
			}

			pred := bp.Predict(pc)
			Expect(pred.Taken).To(BeTrue())
			Expect(pred.TargetKnown).To(BeTrue())
			Expect(pred.Target).To(Equal(target))
		})

		It("should learn a never-taken branch", func() {
			pc := uint64(0x1000)

			for i := 0; i < 10; i++ {
				bp.Update(pc, false, 0)
			}

			pred := bp.Predict(pc)
			Expect(pred.Taken).To(BeFalse())
		})

		It("should require two mispredictions to change direction", func() {
			pc := uint64(0x1000)
			target := uint64(0x2000)

			// Saturate up to strongly taken.
			bp.Update(pc, true, target)
			bp.Update(pc, true, target)
			bp.Update(pc, true, target)

			// One not-taken leaves the counter at weakly taken.
			bp.Update(pc, false, 0)
			Expect(bp.Predict(pc).Taken).To(BeTrue())

			// A second not-taken flips the direction.
			bp.Update(pc, false, 0)
			Expect(bp.Predict(pc).Taken).To(BeFalse())
		})
	})

	Describe("target buffer", func() {
		It("should cache the target of a taken branch", func() {
			pc := uint64(0x1000)
			target := uint64(0x2000)

			Expect(bp.Predict(pc).TargetKnown).To(BeFalse())

			bp.Update(pc, true, target)

			pred := bp.Predict(pc)
			Expect(pred.TargetKnown).To(BeTrue())
			Expect(pred.Target).To(Equal(target))
		})

		It("should not cache not-taken branches", func() {
			bp.Update(0x1000, false, 0x2000)

			Expect(bp.Predict(0x1000).TargetKnown).To(BeFalse())
		})

		It("should evict on an index conflict", func() {
			bp = core.NewBranchPredictor(16, 4)

			pc1 := uint64(0x1000)
			pc2 := uint64(0x1000 + 4*4) // same BTB index as pc1
			target1 := uint64(0x2000)
			target2 := uint64(0x3000)

			bp.Update(pc1, true, target1)
			pred := bp.Predict(pc1)
			Expect(pred.TargetKnown).To(BeTrue())
			Expect(pred.Target).To(Equal(target1))

			bp.Update(pc2, true, target2)
			pred = bp.Predict(pc2)
			Expect(pred.TargetKnown).To(BeTrue())
			Expect(pred.Target).To(Equal(target2))

			// The tag no longer matches, so pc1 misses.
			Expect(bp.Predict(pc1).TargetKnown).To(BeFalse())
		})
	})

	Describe("misprediction check", func() {
		It("should flag a wrong direction", func() {
			pred := core.Prediction{Taken: true, Target: 0x2000, TargetKnown: true}
			Expect(pred.Mispredicts(false, 0)).To(BeTrue())
		})

		It("should flag a taken branch with an unknown target", func() {
			pred := core.Prediction{Taken: true}
			Expect(pred.Mispredicts(true, 0x2000)).To(BeTrue())
		})

		It("should flag a taken branch with a wrong target", func() {
			pred := core.Prediction{Taken: true, Target: 0x3000, TargetKnown: true}
			Expect(pred.Mispredicts(true, 0x2000)).To(BeTrue())
		})

		It("should pass a taken branch with the right target", func() {
			pred := core.Prediction{Taken: true, Target: 0x2000, TargetKnown: true}
			Expect(pred.Mispredicts(true, 0x2000)).To(BeFalse())
		})

		It("should pass a not-taken branch regardless of target", func() {
			pred := core.Prediction{Taken: false}
			Expect(pred.Mispredicts(false, 0x2000)).To(BeFalse())
		})
	})

	Describe("statistics", func() {
		It("should count predictions", func() {
			bp.Predict(0x1000)
			bp.Predict(0x1000)
			bp.Predict(0x1000)

			Expect(bp.Stats().Predictions).To(Equal(uint64(3)))
		})

		It("should count correct directions", func() {
			bp.Predict(0x1000)
			bp.Update(0x1000, true, 0x2000)

			stats := bp.Stats()
			Expect(stats.Correct).To(Equal(uint64(1)))
			Expect(stats.Mispredictions).To(Equal(uint64(0)))
		})

		It("should count mispredicted directions", func() {
			bp.Predict(0x1000)
			bp.Update(0x1000, false, 0)

			Expect(bp.Stats().Mispredictions).To(Equal(uint64(1)))
		})

		It("should count BTB hits and misses", func() {
			bp.Predict(0x1000)
			bp.Update(0x1000, true, 0x2000)
			bp.Predict(0x1000)

			stats := bp.Stats()
			Expect(stats.BTBMisses).To(Equal(uint64(1)))
			Expect(stats.BTBHits).To(Equal(uint64(1)))
			Expect(stats.BTBHitRate()).To(BeNumerically("==", 50))
		})

		It("should compute accuracy as a percentage", func() {
			// Three correct taken, then one surprise not-taken.
			for i := 0; i < 3; i++ {
				bp.Predict(0x1000)
				bp.Update(0x1000, true, 0x2000)
			}
			bp.Predict(0x1000)
			bp.Update(0x1000, false, 0)

			stats := bp.Stats()
			Expect(stats.Correct).To(Equal(uint64(3)))
			Expect(stats.Mispredictions).To(Equal(uint64(1)))
			Expect(stats.Accuracy()).To(BeNumerically("==", 75))
			Expect(stats.MispredictionRate()).To(BeNumerically("==", 25))
		})

		It("should report zero rates with no activity", func() {
			stats := bp.Stats()
			Expect(stats.Accuracy()).To(BeZero())
			Expect(stats.MispredictionRate()).To(BeZero())
			Expect(stats.BTBHitRate()).To(BeZero())
		})
	})

	Describe("reset", func() {
		It("should restore the power-on state", func() {
			for i := 0; i < 5; i++ {
				bp.Predict(0x1000)
				bp.Update(0x1000, false, 0)
			}
			Expect(bp.Predict(0x1000).Taken).To(BeFalse())

			bp.Reset()

			Expect(bp.Predict(0x1000).Taken).To(BeTrue())
			Expect(bp.Predict(0x1000).TargetKnown).To(BeFalse())
			Expect(bp.Stats().Predictions).To(Equal(uint64(2)))
		})
	})

	Describe("defaults", func() {
		It("should fall back to the default table sizes", func() {
			bp = core.NewBranchPredictor(0, 0)
			Expect(bp.Predict(0x1000).Taken).To(BeTrue())
		})
	})
})
