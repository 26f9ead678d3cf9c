// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package guard_test

import (
	"errors"
	"testing"

	"github.com/devblok/texel/utility/guard"
)

func TestRollbackRunsInReverseOrder(t *testing.T) {
	var order []int
	g := guard.New()
	for idx := 0; idx < 3; idx++ {
		idx := idx
		g.Track(func() error {
			order = append(order, idx)
			return nil
		})
	}

	if err := g.Rollback(); err != nil {
		t.Error(err)
	}

	if len(order) != 3 {
		t.Fatalf("expected 3 teardowns, ran %d", len(order))
	}
	for idx, v := range []int{2, 1, 0} {
		if order[idx] != v {
			t.Errorf("teardown %d ran out of order, got %d", idx, order[idx])
		}
	}
}

func TestCommitDisarms(t *testing.T) {
	var ran bool
	g := guard.New()
	g.Track(func() error {
		ran = true
		return nil
	})
	g.Commit()

	if err := g.Rollback(); err != nil {
		t.Error(err)
	}
	if ran {
		t.Error("teardown ran after Commit")
	}
}

func TestFailingTeardownDoesNotStopTheRest(t *testing.T) {
	var order []string
	g := guard.New()
	g.Track(func() error {
		order = append(order, "first")
		return nil
	})
	g.Track(func() error {
		order = append(order, "second")
		return errors.New("teardown failed")
	})

	err := g.Rollback()
	if err == nil {
		t.Error("expected collected teardown failure")
	}
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("unexpected teardown order: %v", order)
	}
}
