package pipeline

import (
	"github.com/AIObjectives/tttc-light-js-sub003/internal/model"
)

// assembleReport walks the taxonomy and attaches the matching sorted-tree
// branch to every topic and subtopic, minting a fresh identifier for each
// node. Branches are matched by verbatim name; an index is built once per
// tree so the walk stays linear. A taxonomy name with no sorted counterpart
// is a hard error. Claims under sorted branches the taxonomy does not know
// about are returned as unmatched rather than dropped silently.
func assembleReport(taxonomy model.Taxonomy, sorted model.SortedTree, newID func() string) ([]model.ReportTopic, []model.Claim, error) {
	topicIndex := make(map[string]model.SortedTopic, len(sorted))
	for _, st := range sorted {
		topicIndex[st.TopicName] = st
	}

	knownTopics := make(map[string]map[string]bool, len(taxonomy))
	tree := make([]model.ReportTopic, 0, len(taxonomy))

	for _, topic := range taxonomy {
		branch, ok := topicIndex[topic.TopicName]
		if !ok {
			return nil, nil, &AssemblyError{Kind: "topic", Name: topic.TopicName}
		}

		subIndex := make(map[string]model.SortedSubtopic, len(branch.Subtopics))
		for _, ss := range branch.Subtopics {
			subIndex[ss.SubtopicName] = ss
		}

		knownSubs := make(map[string]bool, len(topic.Subtopics))
		subtopics := make([]model.ReportSubtopic, 0, len(topic.Subtopics))
		for _, sub := range topic.Subtopics {
			subBranch, ok := subIndex[sub.SubtopicName]
			if !ok {
				return nil, nil, &AssemblyError{Kind: "subtopic", Name: sub.SubtopicName}
			}
			knownSubs[sub.SubtopicName] = true

			subtopics = append(subtopics, model.ReportSubtopic{
				ID:          newID(),
				Title:       sub.SubtopicName,
				Description: sub.SubtopicShortDescription,
				NumClaims:   subBranch.NumClaims,
				NumPeople:   subBranch.NumPeople,
				Claims:      assembleClaims(subBranch.Claims, newID),
			})
		}
		knownTopics[topic.TopicName] = knownSubs

		tree = append(tree, model.ReportTopic{
			ID:          newID(),
			Title:       topic.TopicName,
			Description: topic.TopicShortDescription,
			NumClaims:   branch.NumClaims,
			NumPeople:   branch.NumPeople,
			Subtopics:   subtopics,
		})
	}

	return tree, unmatchedClaims(sorted, knownTopics), nil
}

func assembleClaims(claims []model.Claim, newID func() string) []model.ReportClaim {
	out := make([]model.ReportClaim, 0, len(claims))
	for _, c := range claims {
		out = append(out, model.ReportClaim{
			ID:         newID(),
			Title:      c.Claim,
			Quote:      c.Quote,
			Speaker:    c.Speaker,
			CommentID:  c.CommentID,
			Duplicates: assembleClaims(c.Duplicates, newID),
		})
	}
	return out
}

// unmatchedClaims collects claims under sorted branches the taxonomy never
// named, for the tracker's audit trail.
func unmatchedClaims(sorted model.SortedTree, known map[string]map[string]bool) []model.Claim {
	unmatched := []model.Claim{}
	for _, st := range sorted {
		knownSubs, topicKnown := known[st.TopicName]
		for _, ss := range st.Subtopics {
			if topicKnown && knownSubs[ss.SubtopicName] {
				continue
			}
			unmatched = append(unmatched, ss.Claims...)
		}
	}
	return unmatched
}

// computeStats derives the summary counts surfaced with the finished status.
// Claim counts include absorbed duplicates; people are distinct speakers.
func computeStats(tree []model.ReportTopic) model.ReportStats {
	stats := model.ReportStats{NumTopics: len(tree)}
	people := map[string]bool{}

	var countClaims func(claims []model.ReportClaim)
	countClaims = func(claims []model.ReportClaim) {
		for _, c := range claims {
			stats.NumClaims++
			if c.Speaker != "" {
				people[c.Speaker] = true
			}
			countClaims(c.Duplicates)
		}
	}

	for _, topic := range tree {
		stats.NumSubtopics += len(topic.Subtopics)
		for _, sub := range topic.Subtopics {
			countClaims(sub.Claims)
		}
	}
	stats.NumPeople = len(people)
	return stats
}
