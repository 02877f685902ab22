package cluster

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/ppiankov/quire/internal/model"
)

func cards(contents ...string) []model.Card {
	out := make([]model.Card, len(contents))
	for i, c := range contents {
		out[i] = model.Card{ID: fmt.Sprintf("card-%d", i+1), Content: c}
	}
	return out
}

func TestEngine_QuickMode(t *testing.T) {
	engine := NewEngine(model.DefaultConfig().Cluster)

	res := engine.Cluster(cards(
		"harbor storms flooding fishermen",
		"harbor storms battered fishermen",
		"orchard apples harvest autumn",
		"orchard apples harvest winter",
		"telephone bureaucracy paperwork",
	))

	if res.Mode != ModeQuick {
		t.Fatalf("Expected quick mode, got %s", res.Mode)
	}
	if len(res.Clusters) != 2 {
		t.Fatalf("Expected 2 clusters, got %d: %+v", len(res.Clusters), res.Clusters)
	}
	if !reflect.DeepEqual(res.Clusters[0].CardIDs, []string{"card-1", "card-2"}) {
		t.Errorf("Expected harbor cards together, got %v", res.Clusters[0].CardIDs)
	}
	if !reflect.DeepEqual(res.Clusters[1].CardIDs, []string{"card-3", "card-4"}) {
		t.Errorf("Expected orchard cards together, got %v", res.Clusters[1].CardIDs)
	}
	if !reflect.DeepEqual(res.Unclustered, []string{"card-5"}) {
		t.Errorf("Expected card-5 unclustered, got %v", res.Unclustered)
	}
	if res.Clusters[0].Name != "Harbor & Storms" {
		t.Errorf("Expected name 'Harbor & Storms', got %q", res.Clusters[0].Name)
	}
	if res.Clusters[0].SeedCardID != "card-1" {
		t.Errorf("Expected seed card-1, got %s", res.Clusters[0].SeedCardID)
	}
	if res.Stats.UnclusteredCount != 1 || res.Stats.ClusteredCards != 4 {
		t.Errorf("Unexpected stats: %+v", res.Stats)
	}
}

func TestEngine_QuickMode_FewerThanThree(t *testing.T) {
	engine := NewEngine(model.DefaultConfig().Cluster)

	res := engine.Cluster(cards("lighthouse keeper", "telephone bureaucracy"))
	if len(res.Clusters) != 1 {
		t.Fatalf("Expected a single cluster, got %d", len(res.Clusters))
	}
	if len(res.Clusters[0].CardIDs) != 2 {
		t.Errorf("Expected both cards in the cluster, got %v", res.Clusters[0].CardIDs)
	}
}

func TestEngine_Empty(t *testing.T) {
	engine := NewEngine(model.DefaultConfig().Cluster)

	res := engine.Cluster(nil)
	if len(res.Clusters) != 0 || len(res.Unclustered) != 0 {
		t.Errorf("Expected empty result, got %+v", res)
	}
	if res.Clusters == nil || res.Unclustered == nil {
		t.Error("Expected non-nil slices")
	}
	if res.Stats.UnclusteredPercent != 0 {
		t.Errorf("Expected 0 percent, got %f", res.Stats.UnclusteredPercent)
	}
}

func fullModeCards() []model.Card {
	var contents []string
	for i := 0; i < 5; i++ {
		contents = append(contents, "harbor storms fishermen nets")
	}
	for i := 0; i < 5; i++ {
		contents = append(contents, "orchard apples harvest ladder")
	}
	contents = append(contents, "telephone bureaucracy", "paperwork stamps")
	return cards(contents...)
}

func TestEngine_FullMode_PartitionIsSound(t *testing.T) {
	engine := NewEngine(model.DefaultConfig().Cluster)
	input := fullModeCards()

	res := engine.Cluster(input)
	if res.Mode != ModeFull {
		t.Fatalf("Expected full mode, got %s", res.Mode)
	}

	seen := make(map[string]int)
	for _, c := range res.Clusters {
		for _, id := range c.CardIDs {
			seen[id]++
		}
	}
	for _, id := range res.Unclustered {
		seen[id]++
	}
	for _, card := range input {
		if seen[card.ID] != 1 {
			t.Errorf("Expected %s exactly once, got %d", card.ID, seen[card.ID])
		}
	}

	// Two topical clusters plus the promoted leftover bucket
	if len(res.Clusters) != 3 {
		t.Fatalf("Expected 3 clusters, got %d", len(res.Clusters))
	}
	if len(res.Clusters[0].CardIDs) != 5 || len(res.Clusters[1].CardIDs) != 5 {
		t.Errorf("Expected 5+5 topical clusters, got %v / %v", res.Clusters[0].CardIDs, res.Clusters[1].CardIDs)
	}
	if res.Clusters[0].AvgSimilarity != 1 {
		t.Errorf("Expected identical cards to have similarity 1, got %f", res.Clusters[0].AvgSimilarity)
	}
}

func TestEngine_FullMode_LeftoverBelowMinimum(t *testing.T) {
	cfg := model.DefaultConfig().Cluster
	cfg.MinClusterSize = 3
	engine := NewEngine(cfg)

	res := engine.Cluster(fullModeCards())
	if len(res.Clusters) != 2 {
		t.Fatalf("Expected 2 clusters, got %d", len(res.Clusters))
	}
	if !reflect.DeepEqual(res.Unclustered, []string{"card-11", "card-12"}) {
		t.Errorf("Expected leftovers unclustered, got %v", res.Unclustered)
	}
	if res.Stats.UnclusteredPercent <= 16 || res.Stats.UnclusteredPercent >= 17 {
		t.Errorf("Expected ~16.7 percent unclustered, got %f", res.Stats.UnclusteredPercent)
	}
}

func TestEngine_FullMode_TransitiveClosure(t *testing.T) {
	// A~B and B~C clear the threshold while A~C does not; C still joins.
	contents := []string{
		"anchor beacon cobalt dunes",
		"anchor beacon cobalt dunes ember",
		"beacon cobalt dunes ember falcon",
	}
	for _, w := range []string{"garnet", "hollow", "indigo", "jasper", "kestrel", "lantern", "meadow"} {
		contents = append(contents, w)
	}

	engine := NewEngine(model.DefaultConfig().Cluster)
	res := engine.Cluster(cards(contents...))

	want := []string{"card-1", "card-2", "card-3"}
	if !reflect.DeepEqual(res.Clusters[0].CardIDs, want) {
		t.Errorf("Expected %v, got %v", want, res.Clusters[0].CardIDs)
	}
}

func TestEngine_FullMode_MaxClusters(t *testing.T) {
	cfg := model.DefaultConfig().Cluster
	cfg.MaxClusters = 1
	cfg.MinClusterSize = 3
	engine := NewEngine(cfg)

	res := engine.Cluster(fullModeCards())
	if len(res.Clusters) != 2 {
		t.Fatalf("Expected one topical cluster plus the leftover bucket, got %d", len(res.Clusters))
	}
	if len(res.Unclustered) != 0 {
		t.Errorf("Expected leftovers promoted, got %v", res.Unclustered)
	}
}

func TestEngine_Deterministic(t *testing.T) {
	engine := NewEngine(model.DefaultConfig().Cluster)
	input := fullModeCards()

	first := engine.Cluster(input)
	second := engine.Cluster(input)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical runs, got %+v vs %+v", first, second)
	}
}

func TestName_Empty(t *testing.T) {
	input := cards("the and of", "a an")
	if got := Name(input, []int{0, 1}); got != unnamedCluster {
		t.Errorf("Expected %q, got %q", unnamedCluster, got)
	}
}

func TestEngine_ZeroMinClusterSize(t *testing.T) {
	cfg := model.DefaultConfig().Cluster
	cfg.MinClusterSize = 0
	engine := NewEngine(cfg)

	same := make([]string, 12)
	for i := range same {
		same[i] = "lighthouse keeper harbor storm"
	}
	full := engine.Cluster(cards(same...))
	if full.Mode != ModeFull || len(full.Clusters) != 1 || len(full.Clusters[0].CardIDs) != 12 {
		t.Errorf("Expected one full-mode cluster of 12, got %+v", full.Clusters)
	}
	if len(full.Unclustered) != 0 {
		t.Errorf("Expected nothing unclustered, got %v", full.Unclustered)
	}

	quick := engine.Cluster(cards(
		"harbor storms flooding",
		"orchard apples harvest",
		"telephone bureaucracy paperwork",
	))
	if quick.Mode != ModeQuick || len(quick.Clusters) != 3 {
		t.Errorf("Expected three singleton clusters, got %+v", quick.Clusters)
	}
	for _, c := range quick.Clusters {
		if len(c.CardIDs) == 0 {
			t.Errorf("Expected no empty clusters, got %s", c.ID)
		}
	}
}

func TestReturnToPool_SortsDiscoveryOrder(t *testing.T) {
	// Transitive closure discovers members out of index order
	got := returnToPool([]int{2, 6, 9}, []int{8, 3, 5})
	want := []int{2, 3, 5, 6, 8, 9}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	members := []int{8, 3}
	returnToPool(nil, members)
	if !reflect.DeepEqual(members, []int{8, 3}) {
		t.Errorf("Expected members untouched, got %v", members)
	}
}
