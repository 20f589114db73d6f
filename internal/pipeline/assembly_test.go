package pipeline

import (
	"fmt"
	"testing"

	"github.com/AIObjectives/tttc-light-js-sub003/internal/model"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestAssembleReport_CollectsUnmatchedClaims(t *testing.T) {
	taxonomy := model.Taxonomy{
		{TopicName: "Housing", Subtopics: []model.Subtopic{{SubtopicName: "Rent"}}},
	}
	sorted := model.SortedTree{
		{
			TopicName: "Housing",
			Subtopics: []model.SortedSubtopic{
				{SubtopicName: "Rent", Claims: []model.Claim{{Claim: "Cap rents", Speaker: "Alice"}}},
				// branch the taxonomy never named
				{SubtopicName: "Zoning", Claims: []model.Claim{{Claim: "Relax zoning", Speaker: "Bob"}}},
			},
		},
	}

	tree, unmatched, err := assembleReport(taxonomy, sorted, sequentialIDs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree) != 1 || len(tree[0].Subtopics) != 1 {
		t.Fatalf("expected exactly the taxonomy's branches, got %d topics", len(tree))
	}
	if len(unmatched) != 1 || unmatched[0].Claim != "Relax zoning" {
		t.Errorf("expected the zoning claim to be unmatched, got %v", unmatched)
	}
}

func TestAssembleReport_MintsIDsForDuplicates(t *testing.T) {
	taxonomy := model.Taxonomy{
		{TopicName: "Housing", Subtopics: []model.Subtopic{{SubtopicName: "Rent"}}},
	}
	sorted := model.SortedTree{
		{
			TopicName: "Housing",
			Subtopics: []model.SortedSubtopic{
				{SubtopicName: "Rent", Claims: []model.Claim{
					{Claim: "Cap rents", Duplicates: []model.Claim{{Claim: "Freeze rents"}}},
				}},
			},
		},
	}

	tree, _, err := assembleReport(taxonomy, sorted, sequentialIDs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claim := tree[0].Subtopics[0].Claims[0]
	if len(claim.Duplicates) != 1 {
		t.Fatalf("expected one nested duplicate, got %d", len(claim.Duplicates))
	}
	if claim.Duplicates[0].ID == "" || claim.Duplicates[0].ID == claim.ID {
		t.Error("duplicates must carry their own fresh id")
	}
}

func TestComputeStats_DistinctSpeakersAcrossDuplicates(t *testing.T) {
	tree := []model.ReportTopic{
		{Subtopics: []model.ReportSubtopic{
			{Claims: []model.ReportClaim{
				{Speaker: "Alice", Duplicates: []model.ReportClaim{{Speaker: "Bob"}, {Speaker: "Alice"}}},
			}},
		}},
	}

	stats := computeStats(tree)
	if stats.NumClaims != 3 {
		t.Errorf("expected 3 claims counting duplicates, got %d", stats.NumClaims)
	}
	if stats.NumPeople != 2 {
		t.Errorf("expected 2 distinct speakers, got %d", stats.NumPeople)
	}
}
