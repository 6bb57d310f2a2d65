package allocation

import (
	"errors"
	"math"
	"testing"
)

func TestAllocate(t *testing.T) {
	batch := Allocate(0.25, 100)

	r, c := batch.Dims()
	if r != 1 || c != 2 {
		t.Fatalf("expected 1x2 batch, got %dx%d", r, c)
	}
	if Fiction(batch, 0) != 25 {
		t.Errorf("expected fiction 25, got %f", Fiction(batch, 0))
	}
	if Help(batch, 0) != 75 {
		t.Errorf("expected help 75, got %f", Help(batch, 0))
	}
}

func TestAllocate_SumsToBudget(t *testing.T) {
	budgets := []float64{1, 17.5, 100, 1440}

	for _, total := range budgets {
		for i := 0; i <= 100; i++ {
			p := float64(i) / 100
			batch := Allocate(p, total)

			sum := Fiction(batch, 0) + Help(batch, 0)
			if math.Abs(sum-total) > 1e-9*total {
				t.Errorf("p=%.2f total=%.1f: allocation sums to %f", p, total, sum)
			}
			if Fiction(batch, 0) < 0 || Help(batch, 0) < 0 {
				t.Errorf("p=%.2f total=%.1f: negative allocation %v", p, total, batch.RawRowView(0))
			}
		}
	}
}

func TestAllocate_OutOfRangeNotValidated(t *testing.T) {
	batch := Allocate(1.5, 10)
	if Help(batch, 0) != -5 {
		t.Errorf("expected help -5 for p=1.5, got %f", Help(batch, 0))
	}
}

func TestAllocateVec(t *testing.T) {
	batch, err := AllocateVec([]float64{0.4, 0.9}, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Fiction(batch, 0) != 20 || Help(batch, 0) != 30 {
		t.Errorf("expected [20 30], got %v", batch.RawRowView(0))
	}

	_, err = AllocateVec(nil, 50)
	if !errors.Is(err, ErrEmptyProportion) {
		t.Errorf("expected ErrEmptyProportion, got %v", err)
	}
}

func TestNewBatch(t *testing.T) {
	batch := NewBatch([][2]float64{{1, 2}, {3, 4}, {5, 6}})

	if Rows(batch) != 3 {
		t.Fatalf("expected 3 rows, got %d", Rows(batch))
	}
	if Fiction(batch, 2) != 5 || Help(batch, 1) != 4 {
		t.Errorf("unexpected batch contents")
	}

	if Rows(NewBatch(nil)) != 0 {
		t.Error("expected empty batch to have 0 rows")
	}
}
