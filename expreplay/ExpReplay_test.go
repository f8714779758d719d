package expreplay

import (
	"testing"

	"gonum.org/v1/gonum/mat"
	ts "sfneuman.com/blackjack/timestep"
)

// transitionWithReward creates a 1-feature, 1-action transition whose
// reward identifies the insertion
func transitionWithReward(reward float64) ts.Transition {
	return ts.Transition{
		State:     mat.NewVecDense(1, []float64{reward}),
		Action:    mat.NewVecDense(1, []float64{1}),
		Reward:    reward,
		Discount:  1.0,
		NextState: mat.NewVecDense(1, []float64{reward + 1}),
	}
}

// TestOldestFirstEviction ensures that after inserting more items
// than capacity, the buffer holds exactly the most recent capacity
// items in insertion order.
func TestOldestFirstEviction(t *testing.T) {
	capacity := 5
	buffer, err := New(1, capacity, 1, 1, 1, 42)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}
	cache := buffer.(*ringCache)

	inserts := 13
	for i := 0; i < inserts; i++ {
		if err := buffer.Add(transitionWithReward(float64(i))); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	if buffer.Capacity() != capacity {
		t.Fatalf("capacity = %v, want %v", buffer.Capacity(), capacity)
	}

	// The buffer should hold rewards inserts-capacity .. inserts-1,
	// oldest first
	order := cache.insertOrder()
	for i, index := range order {
		want := float64(inserts - capacity + i)
		if got := cache.rewardCache[index]; got != want {
			t.Errorf("position %d: reward = %v, want %v", i, got, want)
		}
	}
}

// TestMinCapacityGate ensures sampling before the minimum capacity is
// reached reports an insufficient-samples error, and that the error
// clears once enough transitions exist.
func TestMinCapacityGate(t *testing.T) {
	buffer, err := New(3, 10, 2, 1, 1, 42)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}

	_, _, _, _, _, err = buffer.Sample()
	if !IsEmptyBuffer(err) {
		t.Fatalf("expected empty-buffer error, got %v", err)
	}

	buffer.Add(transitionWithReward(0))
	buffer.Add(transitionWithReward(1))
	_, _, _, _, _, err = buffer.Sample()
	if !IsInsufficientSamples(err) {
		t.Fatalf("expected insufficient-samples error, got %v", err)
	}

	buffer.Add(transitionWithReward(2))
	if _, _, _, _, _, err = buffer.Sample(); err != nil {
		t.Fatalf("sample at min capacity failed: %v", err)
	}
}

// TestSampleShapesAndContents ensures sampled batches have the
// correct flat shapes and only hold stored transitions.
func TestSampleShapesAndContents(t *testing.T) {
	batchSize := 4
	buffer, err := New(1, 8, batchSize, 1, 1, 42)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}

	stored := map[float64]bool{}
	for i := 0; i < 6; i++ {
		buffer.Add(transitionWithReward(float64(i)))
		stored[float64(i)] = true
	}

	states, actions, rewards, discounts, nextStates, err := buffer.Sample()
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}

	if len(states) != batchSize || len(nextStates) != batchSize {
		t.Fatalf("state batch length = %v, want %v", len(states), batchSize)
	}
	if len(actions) != batchSize {
		t.Fatalf("action batch length = %v, want %v", len(actions), batchSize)
	}
	if len(rewards) != batchSize || len(discounts) != batchSize {
		t.Fatalf("reward batch length = %v, want %v", len(rewards), batchSize)
	}

	for i := 0; i < batchSize; i++ {
		if !stored[rewards[i]] {
			t.Errorf("sampled reward %v was never stored", rewards[i])
		}
		if states[i] != rewards[i] || nextStates[i] != rewards[i]+1 {
			t.Errorf("sample %d: fields do not belong to one transition", i)
		}
	}
}

// TestInvalidConfigurations ensures construction fails fast on
// invalid capacities
func TestInvalidConfigurations(t *testing.T) {
	tests := []struct {
		name                    string
		minCap, maxCap, batch   int
		featureSize, actionSize int
	}{
		{"zero min capacity", 0, 10, 1, 1, 1},
		{"zero max capacity", 1, 0, 1, 1, 1},
		{"min above max", 5, 2, 1, 1, 1},
		{"batch above max", 1, 2, 4, 1, 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := New(test.minCap, test.maxCap, test.batch,
				test.featureSize, test.actionSize, 42)
			if err == nil {
				t.Error("expected construction error, got nil")
			}
		})
	}
}

// TestTerminalDiscountStored ensures terminal transitions keep their
// zero discount through the buffer
func TestTerminalDiscountStored(t *testing.T) {
	buffer, err := New(1, 1, 1, 1, 1, 42)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}

	terminal := transitionWithReward(1)
	terminal.Discount = 0.0
	buffer.Add(terminal)

	_, _, _, discounts, _, err := buffer.Sample()
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}
	if discounts[0] != 0.0 {
		t.Errorf("terminal discount = %v, want 0", discounts[0])
	}
}
