package scheduler

import (
	"cmp"
	"fmt"
	"iter"
	"slices"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
)

const (
	defaultSwapIterationCap = 30
	swapGainEps             = 1e-9
)

// SwapEngine refines a previously materialized assignment set by exchanging
// staff identities between existing assignments. It never calls the solver,
// never touches room assignments and never creates or deletes records: every
// move is a bijection on a two-element set, so all structural invariants are
// preserved by construction.
type SwapEngine struct {
	opts        Options
	idx         *refIndex
	restricted  map[int64]bool
	iterCap     int
	assignments []*domain.Assignment
}

type RefineResult struct {
	SwapCount       int32
	TotalGain       float64
	Iterations      int32
	AssignmentCount int32
}

func NewSwapEngine(opts Options, input *Input, assignments []*domain.Assignment) (*SwapEngine, error) {
	idx, err := buildIndex(input)
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		if _, ok := idx.staffByID[a.StaffID]; !ok {
			return nil, fmt.Errorf("assignment %d references unknown staff %d", a.ID, a.StaffID)
		}
	}

	// A stable order makes candidate enumeration — and therefore gain
	// tie-breaking — deterministic: ties go to the lowest assignment ids.
	assignments = slices.Clone(assignments)
	slices.SortFunc(assignments, func(a, b *domain.Assignment) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(periodOrder(a.Period), periodOrder(b.Period)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	iterCap := opts.SwapIterationCap
	if iterCap <= 0 {
		iterCap = defaultSwapIterationCap
	}

	restricted := make(map[int64]bool, len(opts.RestrictedSiteIDs))
	for _, id := range opts.RestrictedSiteIDs {
		restricted[id] = true
	}

	return &SwapEngine{
		opts:        opts,
		idx:         idx,
		restricted:  restricted,
		iterCap:     iterCap,
		assignments: assignments,
	}, nil
}

// Assignments exposes the working set; records are the caller's, mutated in
// place (staff ids only).
func (e *SwapEngine) Assignments() []*domain.Assignment {
	return e.assignments
}

// Run applies the best strictly improving move per iteration until none is
// left or the iteration cap is reached.
func (e *SwapEngine) Run() *RefineResult {
	res := &RefineResult{AssignmentCount: int32(len(e.assignments))}

	for it := 0; it < e.iterCap; it++ {
		ms := e.metrics()
		base := e.totalScore()

		var best [][2]int
		bestGain := 0.0
		for pairs := range e.candidates(ms) {
			if g := e.gain(pairs, base); g > bestGain+swapGainEps {
				bestGain = g
				best = slices.Clone(pairs)
			}
		}
		if best == nil {
			break
		}

		e.apply(best)
		res.Iterations++
		res.SwapCount += int32(len(best))
		res.TotalGain += bestGain
	}

	return res
}

type staffMetrics struct {
	admin       int32
	changeDays  int32
	undesirable int32
}

// problematic staff concentrate the violations the search focuses on.
func (m *staffMetrics) problematic() bool {
	return m.admin >= 2 || m.changeDays >= 1
}

// dayLoc is where a half-day assignment places its staff member: the theater
// block or a clinical site. Admin duty has no location.
type dayLoc struct {
	theater bool
	siteID  int64
}

func assignmentLoc(a *domain.Assignment) (dayLoc, bool) {
	switch a.Kind {
	case domain.KindTheater:
		return dayLoc{theater: true}, true
	case domain.KindSite:
		return dayLoc{siteID: *a.SiteID}, true
	default:
		return dayLoc{}, false
	}
}

func (e *SwapEngine) metrics() map[int64]*staffMetrics {
	out := make(map[int64]*staffMetrics)
	get := func(staffID int64) *staffMetrics {
		m, ok := out[staffID]
		if !ok {
			m = &staffMetrics{}
			out[staffID] = m
		}
		return m
	}

	locs := make(map[staffDateKey]map[domain.Period]dayLoc)
	for _, a := range e.assignments {
		m := get(a.StaffID)
		switch a.Kind {
		case domain.KindAdmin:
			m.admin++
		case domain.KindSite:
			if *a.SiteID == e.opts.UndesirableSiteID {
				m.undesirable++
			}
		}
		if loc, ok := assignmentLoc(a); ok {
			dk := staffDateKey{a.StaffID, domain.DateKey(a.Date)}
			if locs[dk] == nil {
				locs[dk] = make(map[domain.Period]dayLoc)
			}
			locs[dk][a.Period] = loc
		}
	}

	for dk, byPeriod := range locs {
		morning, mok := byPeriod[domain.PeriodMorning]
		afternoon, aok := byPeriod[domain.PeriodAfternoon]
		if mok && aok && morning != afternoon {
			get(dk.StaffID).changeDays++
		}
	}

	return out
}

// totalScore recomputes the objective of the whole assignment set with the
// same per-assignment scoring as the model builder; progressive penalties
// are derived from the live set (k occurrences cost step*k*(k-1)/2 in total).
func (e *SwapEngine) totalScore() float64 {
	total := 0.0
	adminCounts := make(map[int64]int32)
	undesirable := make(map[int64]int32)
	locs := make(map[staffDateKey]map[domain.Period]dayLoc)
	theaterDay := make(map[staffDateKey]bool)
	restrictedDay := make(map[staffDateKey]bool)

	for _, a := range e.assignments {
		st := e.idx.staffByID[a.StaffID]
		dk := staffDateKey{a.StaffID, domain.DateKey(a.Date)}

		switch a.Kind {
		case domain.KindTheater:
			proc := e.idx.procByID[*a.ProcedureID]
			total += theaterBaseScore + doctorPrefBonus(st.DoctorPrefRank(proc.DoctorID))
			theaterDay[dk] = true
		case domain.KindSite:
			siteID := *a.SiteID
			total += siteBaseScore + sitePrefBonus(st.SitePrefRank(siteID))
			for _, doc := range e.idx.doctorsAt(siteID, a.Date, a.Period) {
				total += doctorPrefBonus(st.DoctorPrefRank(doc))
			}
			if siteID == e.opts.UndesirableSiteID && st.SitePrefRank(siteID) != 1 {
				undesirable[a.StaffID]++
			}
			if e.restricted[siteID] {
				restrictedDay[dk] = true
			}
		case domain.KindAdmin:
			adminCounts[a.StaffID]++
		}

		if loc, ok := assignmentLoc(a); ok {
			if locs[dk] == nil {
				locs[dk] = make(map[domain.Period]dayLoc)
			}
			locs[dk][a.Period] = loc
		}
	}

	for staffID, k := range adminCounts {
		n := float64(k)
		if e.idx.staffByID[staffID].PrefersAdmin {
			total += n * (adminBaseScore + adminPreferredBonus)
		} else {
			total += n*adminBaseScore - adminPenaltyStep*n*(n-1)/2
		}
	}
	for _, k := range undesirable {
		n := float64(k)
		total -= undesirablePenaltyStep * n * (n - 1) / 2
	}
	for _, byPeriod := range locs {
		morning, mok := byPeriod[domain.PeriodMorning]
		afternoon, aok := byPeriod[domain.PeriodAfternoon]
		if mok && aok && morning != afternoon {
			total -= siteChurnPenalty
		}
	}
	for dk := range theaterDay {
		if restrictedDay[dk] {
			total -= restrictedAdjacencyPenalty
		}
	}

	return total
}

// candidates lazily enumerates half-day swaps over all assignment pairs in
// the same slot, then full-day exchanges between problematic and normal
// staff. The sequence is finite and restarts fresh each iteration.
func (e *SwapEngine) candidates(ms map[int64]*staffMetrics) iter.Seq[[][2]int] {
	return func(yield func([][2]int) bool) {
		n := len(e.assignments)

		// Half-day swaps: assignments are sorted by slot, so pairs sharing a
		// slot are contiguous.
		for i := 0; i < n; i++ {
			ai := e.assignments[i]
			for j := i + 1; j < n; j++ {
				aj := e.assignments[j]
				if !aj.Date.Equal(ai.Date) || aj.Period != ai.Period {
					break
				}
				if ai.StaffID == aj.StaffID {
					continue
				}
				if !e.swappable(ai, aj) {
					continue
				}
				if !yield([][2]int{{i, j}}) {
					return
				}
			}
		}

		// Full-day swaps, problematic x normal only.
		var problem, normal []int64
		for staffID, m := range ms {
			if m.problematic() {
				problem = append(problem, staffID)
			} else {
				normal = append(normal, staffID)
			}
		}
		slices.Sort(problem)
		slices.Sort(normal)

		byStaffDate := make(map[staffDateKey][]int)
		var dateKeys []string
		for i, a := range e.assignments {
			dk := domain.DateKey(a.Date)
			if len(dateKeys) == 0 || dateKeys[len(dateKeys)-1] != dk {
				dateKeys = append(dateKeys, dk)
			}
			key := staffDateKey{a.StaffID, dk}
			byStaffDate[key] = append(byStaffDate[key], i)
		}

		for _, date := range dateKeys {
			for _, p := range problem {
				pIdx := byStaffDate[staffDateKey{p, date}]
				if len(pIdx) == 0 {
					continue
				}
				for _, nm := range normal {
					nIdx := byStaffDate[staffDateKey{nm, date}]
					if len(nIdx) != len(pIdx) {
						continue
					}
					pairs := make([][2]int, 0, len(pIdx))
					ok := true
					for k := range pIdx {
						ap, an := e.assignments[pIdx[k]], e.assignments[nIdx[k]]
						if ap.Period != an.Period || !e.swappable(ap, an) {
							ok = false
							break
						}
						pairs = append(pairs, [2]int{pIdx[k], nIdx[k]})
					}
					if !ok {
						continue
					}
					if !yield(pairs) {
						return
					}
				}
			}
		}
	}
}

// swappable checks both directions of an exchange: each staff member must be
// eligible for the demand they would receive, and neither may be displaced
// from a site where they hold a top-two doctor preference. Swaps involving
// an admin slot are exempt from the displacement rule.
func (e *SwapEngine) swappable(a, b *domain.Assignment) bool {
	sa, sb := e.idx.staffByID[a.StaffID], e.idx.staffByID[b.StaffID]
	if !e.canTake(sb, a) || !e.canTake(sa, b) {
		return false
	}
	if a.Kind == domain.KindAdmin || b.Kind == domain.KindAdmin {
		return true
	}
	return !e.displacesPreferred(a) && !e.displacesPreferred(b)
}

func (e *SwapEngine) canTake(st *domain.Staff, a *domain.Assignment) bool {
	switch a.Kind {
	case domain.KindTheater:
		proc := e.idx.procByID[*a.ProcedureID]
		return st.HasCompetency(a.Role) && !e.idx.isExcluded(st.ID, proc.DoctorID)
	case domain.KindSite:
		if st.SitePrefRank(*a.SiteID) == 0 {
			return false
		}
		return !e.idx.excludedDoctorAt(st.ID, *a.SiteID, a.Date, a.Period)
	default:
		return true
	}
}

func (e *SwapEngine) displacesPreferred(a *domain.Assignment) bool {
	if a.Kind != domain.KindSite {
		return false
	}
	st := e.idx.staffByID[a.StaffID]
	for _, doc := range e.idx.doctorsAt(*a.SiteID, a.Date, a.Period) {
		if r := st.DoctorPrefRank(doc); r == 1 || r == 2 {
			return true
		}
	}
	return false
}

// gain simulates the move in place (a swap is its own inverse), scores the
// resulting set and adds the fixed penalty for directly exchanging a theater
// assignment with a restricted-site one.
func (e *SwapEngine) gain(pairs [][2]int, base float64) float64 {
	e.apply(pairs)
	g := e.totalScore() - base
	e.apply(pairs)

	for _, pr := range pairs {
		if e.directRestrictedExchange(e.assignments[pr[0]], e.assignments[pr[1]]) {
			g -= restrictedSwapPenalty
		}
	}
	return g
}

func (e *SwapEngine) directRestrictedExchange(a, b *domain.Assignment) bool {
	if a.Kind == domain.KindTheater && b.Kind == domain.KindSite && e.restricted[*b.SiteID] {
		return true
	}
	if b.Kind == domain.KindTheater && a.Kind == domain.KindSite && e.restricted[*a.SiteID] {
		return true
	}
	return false
}

func (e *SwapEngine) apply(pairs [][2]int) {
	for _, pr := range pairs {
		a, b := e.assignments[pr[0]], e.assignments[pr[1]]
		a.StaffID, b.StaffID = b.StaffID, a.StaffID
	}
}
