package main

import "testing"

func TestDecodeAnalysisResultDefaults(t *testing.T) {
	velocity := preleaseVelocity(200, 180, 95)

	result, err := decodeAnalysisResult([]byte(`{}`), velocity, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.AttentionScore != 5 {
		t.Errorf("AttentionScore = %v, want default 5", result.AttentionScore)
	}
	if result.AttentionLevel != "Moderate" {
		t.Errorf("AttentionLevel = %q, want default Moderate", result.AttentionLevel)
	}
	if result.CompIntelligence == nil || len(result.CompIntelligence) != 0 {
		t.Errorf("CompIntelligence = %v, want empty list", result.CompIntelligence)
	}
	if result.ActivePromos == nil || result.HistoricalTimeline == nil || result.YTDTrend == nil {
		t.Error("list fields must default to empty, not nil")
	}
	if result.Strategy.Revenue == nil || result.Strategy.Opex == nil {
		t.Error("strategy lists must default to empty, not nil")
	}
	if result.MoM != nil {
		t.Errorf("MoM = %+v, want nil without prior data", result.MoM)
	}
	if result.PreleaseVelocity.Status != "Behind" || !almostEqual(result.PreleaseVelocity.Variance, -5) {
		t.Errorf("prelease block = %+v, want server-computed Behind/-5", result.PreleaseVelocity)
	}
	if result.PreleaseVelocity.History == nil {
		t.Error("prelease history must default to empty, not nil")
	}
}

func TestDecodeAnalysisResultServerOwnsPreleaseFigures(t *testing.T) {
	velocity := preleaseVelocity(200, 196, 95)

	// The model's prelease figures are discarded; only its history survives.
	raw := `{
		"attentionScore": 8,
		"attentionLevel": "Elevated",
		"preleaseVelocity": {
			"current": 1, "target": 2, "variance": 3, "status": "Behind",
			"history": [{"date": "2025-06-01", "beds": 150}]
		},
		"compIntelligence": [{"id": "c1", "name": "The Hub", "avgRent": 899, "isAlert": true}],
		"strategy": {"revenue": ["Why is premium inventory flat?"], "opex": []}
	}`
	mom := &MoMAnalysis{NOIDelta: -1000, NOIDeltaPct: -10}

	result, err := decodeAnalysisResult([]byte(raw), velocity, mom)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.AttentionScore != 8 || result.AttentionLevel != "Elevated" {
		t.Errorf("attention = %v/%q, want 8/Elevated", result.AttentionScore, result.AttentionLevel)
	}
	pv := result.PreleaseVelocity
	if !almostEqual(pv.Current, 98) || !almostEqual(pv.Variance, 3) || pv.Status != "Ahead" {
		t.Errorf("prelease = %+v, want server-computed 98/+3/Ahead", pv)
	}
	if len(pv.History) != 1 || pv.History[0].Beds != 150 {
		t.Errorf("history = %+v, want the model's single point", pv.History)
	}
	if len(result.CompIntelligence) != 1 || result.CompIntelligence[0].Name != "The Hub" {
		t.Errorf("compIntelligence = %+v", result.CompIntelligence)
	}
	if result.MoM != mom {
		t.Error("MoM not carried through from server computation")
	}
	if len(result.Strategy.Revenue) != 1 || result.Strategy.Opex == nil {
		t.Errorf("strategy = %+v", result.Strategy)
	}
}

func TestDecodeAnalysisResultMalformed(t *testing.T) {
	velocity := preleaseVelocity(200, 180, 95)
	if _, err := decodeAnalysisResult([]byte(`not json at all`), velocity, nil); err == nil {
		t.Fatal("malformed response decoded without error")
	}
}
