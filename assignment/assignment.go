// Package assignment solves combinatorial assignment of agents to groups of
// tasks. An agent may be offered several candidate groups at different costs;
// a group is awarded atomically (all of its tasks or none), and no task is
// awarded twice. The solver maximizes the number of assigned tasks first and
// minimizes total cost second.
package assignment

import (
	"cmp"
	"math"
	"slices"
)

type group[T cmp.Ordered] struct {
	tasks []T
	cost  int64
}

// Assignment accumulates candidate agent-to-group costs and solves them as a
// min-cost max-flow problem. The zero value is not usable; use New.
type Assignment[A cmp.Ordered, T cmp.Ordered] struct {
	agents []A
	groups map[A][]group[T]
}

// New returns an empty assignment problem.
func New[A cmp.Ordered, T cmp.Ordered]() *Assignment[A, T] {
	return &Assignment[A, T]{groups: map[A][]group[T]{}}
}

// Clear removes all accumulated costs.
func (a *Assignment[A, T]) Clear() {
	a.agents = a.agents[:0]
	a.groups = map[A][]group[T]{}
}

// SetCost offers the given task group to the agent at the given cost. Offering
// the same group twice keeps the cheaper cost. Empty groups are ignored.
func (a *Assignment[A, T]) SetCost(agent A, tasks []T, cost int64) {
	if len(tasks) == 0 {
		return
	}
	sorted := slices.Clone(tasks)
	slices.Sort(sorted)
	if _, ok := a.groups[agent]; !ok {
		a.agents = append(a.agents, agent)
	}
	for i, g := range a.groups[agent] {
		if slices.Equal(g.tasks, sorted) {
			if cost < g.cost {
				a.groups[agent][i].cost = cost
			}
			return
		}
	}
	a.groups[agent] = append(a.groups[agent], group[T]{tasks: sorted, cost: cost})
}

// Solve computes the assignment. It returns the tasks awarded to each assigned
// agent (sorted) and the total cost of the awarded groups. Agents left without
// a fully awarded group are absent from the result.
func (a *Assignment[A, T]) Solve() (map[A][]T, int64) {
	agents := slices.Clone(a.agents)
	slices.Sort(agents)

	taskSet := map[T]bool{}
	for _, agent := range agents {
		for _, g := range a.groups[agent] {
			for _, task := range g.tasks {
				taskSet[task] = true
			}
		}
	}
	tasks := make([]T, 0, len(taskSet))
	for task := range taskSet {
		tasks = append(tasks, task)
	}
	slices.Sort(tasks)

	// Node layout: source, sink, agents, one node per offered group, tasks.
	const source, sink = 0, 1
	next := 2
	agentNode := make(map[A]int, len(agents))
	for _, agent := range agents {
		agentNode[agent] = next
		next++
	}
	groupNode := map[A][]int{}
	for _, agent := range agents {
		nodes := make([]int, len(a.groups[agent]))
		for i := range nodes {
			nodes[i] = next
			next++
		}
		groupNode[agent] = nodes
	}
	taskNode := make(map[T]int, len(tasks))
	for _, task := range tasks {
		taskNode[task] = next
		next++
	}

	net := newFlowNetwork(next)
	groupEdge := map[A][]int{}
	for _, agent := range agents {
		maxGroup := 0
		for _, g := range a.groups[agent] {
			maxGroup = max(maxGroup, len(g.tasks))
		}
		net.addEdge(source, agentNode[agent], int64(maxGroup), 0)
		edges := make([]int, len(a.groups[agent]))
		for i, g := range a.groups[agent] {
			node := groupNode[agent][i]
			edges[i] = net.addEdge(agentNode[agent], node, int64(len(g.tasks)), g.cost)
			for _, task := range g.tasks {
				net.addEdge(node, taskNode[task], 1, 0)
			}
		}
		groupEdge[agent] = edges
	}
	for _, task := range tasks {
		net.addEdge(taskNode[task], sink, 1, 0)
	}

	net.run(source, sink)

	solution := map[A][]T{}
	var total int64
	for _, agent := range agents {
		for i, g := range a.groups[agent] {
			if net.flow(agentNode[agent], groupEdge[agent][i]) == int64(len(g.tasks)) {
				solution[agent] = slices.Clone(g.tasks)
				total += g.cost
				break
			}
		}
	}
	return solution, total
}

type flowEdge struct {
	to       int
	rev      int
	capacity int64
	cost     int64
}

type flowNetwork struct {
	edges [][]flowEdge
}

func newFlowNetwork(nodes int) *flowNetwork {
	return &flowNetwork{edges: make([][]flowEdge, nodes)}
}

// addEdge adds a directed edge with a zero-capacity reverse residual and
// returns its index at the source node.
func (n *flowNetwork) addEdge(from, to int, capacity, cost int64) int {
	n.edges[from] = append(n.edges[from], flowEdge{to: to, rev: len(n.edges[to]), capacity: capacity, cost: cost})
	n.edges[to] = append(n.edges[to], flowEdge{to: from, rev: len(n.edges[from]) - 1, capacity: 0, cost: -cost})
	return len(n.edges[from]) - 1
}

// flow reports how much flow crossed the given forward edge, read from the
// residual stored on its reverse edge.
func (n *flowNetwork) flow(from, edge int) int64 {
	e := n.edges[from][edge]
	return n.edges[e.to][e.rev].capacity
}

// run pushes flow along successive cheapest augmenting paths until no path
// remains. Bellman-Ford tolerates the negative residual costs.
func (n *flowNetwork) run(source, sink int) {
	nodes := len(n.edges)
	for {
		dist := make([]int64, nodes)
		prevNode := make([]int, nodes)
		prevEdge := make([]int, nodes)
		for i := range dist {
			dist[i] = math.MaxInt64
			prevNode[i] = -1
		}
		dist[source] = 0

		inQueue := make([]bool, nodes)
		queue := []int{source}
		inQueue[source] = true
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			inQueue[u] = false
			for i, e := range n.edges[u] {
				if e.capacity == 0 || dist[u]+e.cost >= dist[e.to] {
					continue
				}
				dist[e.to] = dist[u] + e.cost
				prevNode[e.to] = u
				prevEdge[e.to] = i
				if !inQueue[e.to] {
					queue = append(queue, e.to)
					inQueue[e.to] = true
				}
			}
		}
		if prevNode[sink] == -1 {
			return
		}

		bottleneck := int64(math.MaxInt64)
		for v := sink; v != source; v = prevNode[v] {
			e := n.edges[prevNode[v]][prevEdge[v]]
			bottleneck = min(bottleneck, e.capacity)
		}
		for v := sink; v != source; v = prevNode[v] {
			e := &n.edges[prevNode[v]][prevEdge[v]]
			e.capacity -= bottleneck
			n.edges[e.to][e.rev].capacity += bottleneck
		}
	}
}
