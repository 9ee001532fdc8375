package council

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/concilium/core/model"
)

// buildRankingPrompt blind-labels each Stage 1 response as "Response A",
// "Response B", … so no juror sees which model produced which answer,
// and returns the label→displayName map callers need to decode the
// juror's ranking later.
func buildRankingPrompt(stage1 []model.Stage1Result) (string, map[string]string) {
	labelToModel := make(map[string]string, len(stage1))

	var sb strings.Builder
	sb.WriteString("You are judging several candidate responses to the same prompt. ")
	sb.WriteString("Rank them from best to worst based on correctness, completeness, and clarity.\n\n")

	for i, r := range stage1 {
		label := responseLabel(i)
		labelToModel[label] = r.Model
		fmt.Fprintf(&sb, "%s:\n%s\n\n", label, r.Response)
	}

	sb.WriteString("Respond with your reasoning, then end with a line starting with the literal marker ")
	sb.WriteString("\"FINAL RANKING:\" followed by the labels in best-first order, e.g. ")
	sb.WriteString("\"FINAL RANKING: Response B, Response A, Response C\".")

	return sb.String(), labelToModel
}

// responseLabel renders the i'th (0-indexed) blind label: A, B, … Z,
// then AA, AB, … for overflow, though in practice N never approaches 26.
func responseLabel(i int) string {
	letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	if i < len(letters) {
		return fmt.Sprintf("Response %c", letters[i])
	}
	return fmt.Sprintf("Response %c%c", letters[i/len(letters)-1], letters[i%len(letters)])
}

var (
	finalRankingMarker  = regexp.MustCompile(`(?i)final ranking:`)
	numberedRankingLine = regexp.MustCompile(`\d+\.\s*[Rr]esponse\s+[A-Za-z]`)
	bareResponseLabel   = regexp.MustCompile(`[Rr]esponse\s+[A-Za-z]`)
)

// parseRanking implements the ranking-parse cascade: find the first
// case-insensitive "FINAL RANKING:" marker; in
// the text that follows, prefer numbered "N. Response X" lines, else
// any bare "Response X" occurrence; if the marker itself is absent,
// search the whole text. Every match is normalized to "Response {X}"
// with X the match's trailing letter, uppercased.
func parseRanking(text string) []string {
	section := text
	if loc := finalRankingMarker.FindStringIndex(text); loc != nil {
		section = text[loc[1]:]
	}

	matches := numberedRankingLine.FindAllString(section, -1)
	if len(matches) == 0 {
		matches = bareResponseLabel.FindAllString(section, -1)
	}

	labels := make([]string, 0, len(matches))
	for _, m := range matches {
		labels = append(labels, normalizeLabel(m))
	}
	return labels
}

func normalizeLabel(match string) string {
	trimmed := strings.TrimRight(match, " \t")
	letter := trimmed[len(trimmed)-1]
	return fmt.Sprintf("Response %c", toUpperASCII(letter))
}

func toUpperASCII(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// aggregateRankings computes each model's average rank across every
// juror that ranked it, sorted ascending (best first).
func aggregateRankings(stage2 []model.Stage2Result, labelToModel map[string]string) []model.AggregateRanking {
	positions := make(map[string][]int)

	for _, result := range stage2 {
		for position, label := range result.ParsedRanking {
			modelName, ok := labelToModel[label]
			if !ok {
				continue
			}
			positions[modelName] = append(positions[modelName], position+1)
		}
	}

	rankings := make([]model.AggregateRanking, 0, len(positions))
	for modelName, ps := range positions {
		var sum int
		for _, p := range ps {
			sum += p
		}
		mean := float64(sum) / float64(len(ps))
		avg := math.Round(mean*100) / 100
		rankings = append(rankings, model.AggregateRanking{
			Model:         modelName,
			AverageRank:   avg,
			RankingsCount: len(ps),
		})
	}

	sort.Slice(rankings, func(i, j int) bool {
		if rankings[i].AverageRank != rankings[j].AverageRank {
			return rankings[i].AverageRank < rankings[j].AverageRank
		}
		return rankings[i].Model < rankings[j].Model
	})

	return rankings
}

// buildSynthesisPrompt assembles the Stage 3 chairman prompt: the
// original user prompt, every Stage 1 response under its label together
// with the name of the model that produced it, and each juror's raw
// ranking text.
func buildSynthesisPrompt(userPrompt string, stage1 []model.Stage1Result, stage2 []model.Stage2Result) string {
	var sb strings.Builder
	sb.WriteString("Original prompt:\n")
	sb.WriteString(userPrompt)
	sb.WriteString("\n\nCandidate responses:\n\n")

	for i, r := range stage1 {
		fmt.Fprintf(&sb, "%s (from %s):\n%s\n\n", responseLabel(i), r.Model, r.Response)
	}

	sb.WriteString("Juror rankings:\n\n")
	for _, r := range stage2 {
		fmt.Fprintf(&sb, "Juror %s:\n%s\n\n", r.Model, r.Ranking)
	}

	sb.WriteString("Synthesize the best possible final answer, drawing on the strongest parts of each candidate and informed by the juror rankings above.")

	return sb.String()
}
