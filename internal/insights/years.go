package insights

import "sort"

// Years returns the distinct years present in monthly records, most recent first.
func Years(records []MonthlyRecord) []int {
	seen := make(map[int]struct{}, len(records))
	years := make([]int, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.Year]; ok {
			continue
		}
		seen[r.Year] = struct{}{}
		years = append(years, r.Year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
