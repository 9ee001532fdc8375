package model

// CompactEvents reduces an agent's event list to a single cumulative
// token-usage event plus the non-usage events: successive
// non-cumulative usages are summed, a cumulative usage replaces the
// running total outright. Non-usage events (text/thinking/tool_call/
// status/raw without a TokenUsage) pass through unchanged and keep their
// relative order; the cumulative usage event is appended at the end,
// matching the RunRepository.loadAll contract of compacting to "a single
// cumulative token-usage event".
//
// CompactEvents is a fixed point: compacting an already-compacted list
// returns an equivalent list.
func CompactEvents(events []ParsedEvent) []ParsedEvent {
	out := make([]ParsedEvent, 0, len(events))
	var total TokenUsage
	haveUsage := false

	for _, e := range events {
		if e.TokenUsage == nil {
			out = append(out, e)
			continue
		}
		if e.TokenUsageCumulative {
			total = TokenUsage{InputTokens: e.TokenUsage.InputTokens, OutputTokens: e.TokenUsage.OutputTokens}
			if e.TokenUsage.TotalCost != nil {
				cost := *e.TokenUsage.TotalCost
				total.TotalCost = &cost
			}
		} else {
			total.InputTokens += e.TokenUsage.InputTokens
			total.OutputTokens += e.TokenUsage.OutputTokens
			if e.TokenUsage.TotalCost != nil {
				if total.TotalCost == nil {
					cost := *e.TokenUsage.TotalCost
					total.TotalCost = &cost
				} else {
					*total.TotalCost += *e.TokenUsage.TotalCost
				}
			}
		}
		haveUsage = true
	}

	if haveUsage {
		usage := total
		out = append(out, ParsedEvent{
			EventType:            EventTypeStatus,
			TokenUsage:           &usage,
			TokenUsageCumulative: true,
		})
	}

	return out
}
