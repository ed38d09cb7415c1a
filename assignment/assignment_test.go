package assignment

import (
	"testing"

	"go.viam.com/test"
)

func TestSolveDisjointGroups(t *testing.T) {
	a := New[string, int]()
	a.SetCost("alpha", []int{0, 1}, 3)
	a.SetCost("bravo", []int{2}, 7)

	solution, cost := a.Solve()
	test.That(t, solution, test.ShouldResemble, map[string][]int{
		"alpha": {0, 1},
		"bravo": {2},
	})
	test.That(t, cost, test.ShouldEqual, 10)
}

func TestSolveGroupIsAtomic(t *testing.T) {
	// bravo's only offer shares task 0 with alpha's two-task group. Awarding
	// alpha covers more tasks, so bravo goes unassigned.
	a := New[string, int]()
	a.SetCost("alpha", []int{0, 1}, 1)
	a.SetCost("bravo", []int{0}, 5)

	solution, cost := a.Solve()
	test.That(t, solution, test.ShouldResemble, map[string][]int{
		"alpha": {0, 1},
	})
	test.That(t, cost, test.ShouldEqual, 1)
}

func TestSolvePrefersCheaperGroup(t *testing.T) {
	a := New[string, int]()
	a.SetCost("alpha", []int{0}, 5)
	a.SetCost("alpha", []int{1}, 2)

	solution, cost := a.Solve()
	test.That(t, solution, test.ShouldResemble, map[string][]int{
		"alpha": {1},
	})
	test.That(t, cost, test.ShouldEqual, 2)
}

func TestSolveMinimizesTotalCost(t *testing.T) {
	// Both agents prefer task 0, but the swap alpha=1, bravo=0 is cheaper
	// overall (2+1) than the greedy alpha=0, bravo=1 (1+9).
	a := New[string, int]()
	a.SetCost("alpha", []int{0}, 1)
	a.SetCost("alpha", []int{1}, 2)
	a.SetCost("bravo", []int{0}, 1)
	a.SetCost("bravo", []int{1}, 9)

	solution, cost := a.Solve()
	test.That(t, solution, test.ShouldResemble, map[string][]int{
		"alpha": {1},
		"bravo": {0},
	})
	test.That(t, cost, test.ShouldEqual, 3)
}

func TestSetCostKeepsCheaperDuplicate(t *testing.T) {
	a := New[string, int]()
	a.SetCost("alpha", []int{0, 1}, 9)
	a.SetCost("alpha", []int{1, 0}, 4)
	a.SetCost("alpha", []int{0, 1}, 6)

	solution, cost := a.Solve()
	test.That(t, solution, test.ShouldResemble, map[string][]int{
		"alpha": {0, 1},
	})
	test.That(t, cost, test.ShouldEqual, 4)
}

func TestClear(t *testing.T) {
	a := New[string, int]()
	a.SetCost("alpha", []int{0}, 1)
	a.Clear()

	solution, cost := a.Solve()
	test.That(t, solution, test.ShouldBeEmpty)
	test.That(t, cost, test.ShouldEqual, 0)

	a.SetCost("bravo", []int{2}, 3)
	solution, cost = a.Solve()
	test.That(t, solution, test.ShouldResemble, map[string][]int{"bravo": {2}})
	test.That(t, cost, test.ShouldEqual, 3)
}

func TestSolveEmpty(t *testing.T) {
	a := New[string, int]()
	solution, cost := a.Solve()
	test.That(t, solution, test.ShouldBeEmpty)
	test.That(t, cost, test.ShouldEqual, 0)

	a.SetCost("alpha", nil, 1)
	solution, _ = a.Solve()
	test.That(t, solution, test.ShouldBeEmpty)
}
