package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/genai"
)

var aiClient *genai.Client

const (
	analysisModel   = "gemini-2.5-flash"
	analysisTimeout = 120 * time.Second
)

// initAI creates the Gemini client. Credentials come from the environment
// (GEMINI_API_KEY); a nil config lets the SDK pick them up.
func initAI(ctx context.Context) error {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	aiClient = client
	return nil
}

const extractionPrompt = `Extract the financial data from this P&L statement. You MUST extract values for every account and subcategory. Return a JSON object matching this structure: { revenue: { rentalIncome: { currentMonthActual, currentMonthBudget, actual, budget, subcategories: [{accountCode, name, currentMonthActual, currentMonthBudget, actual, budget}] }, otherIncome: { currentMonthActual, currentMonthBudget, actual, budget, subcategories: [...] } }, expenses: { payroll: { currentMonthActual, currentMonthBudget, actual, budget, subcategories: [...] }, repairsMaintenance: {...}, utilities: {...}, insurance: { currentMonthActual, currentMonthBudget, actual, budget }, propertyManagement: {...}, taxes: {...}, marketing: {...}, admin: {...}, otherOpEx: {...} } }. IMPORTANT: Ensure all values are NUMBERS, not strings. If a value is missing, use 0. 'actual' and 'budget' refer to YTD values. If you find sub-line items for a category, include them in 'subcategories'.`

// extractFinancials forwards a P&L document to the model and reconciles the
// response against the canonical category tree. csvText takes a spreadsheet
// already converted to CSV; otherwise fileData/mimeType carry the raw bytes
// of an image or PDF.
func extractFinancials(ctx context.Context, client *genai.Client, csvText string, fileData []byte, mimeType string) (FinancialData, error) {
	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	var docPart *genai.Part
	if csvText != "" {
		docPart = &genai.Part{Text: "Here is the financial data from a spreadsheet in CSV format:\n\n" + csvText}
	} else {
		if mimeType == "" {
			mimeType = "application/pdf"
		}
		docPart = &genai.Part{InlineData: &genai.Blob{Data: fileData, MIMEType: mimeType}}
	}

	contents := []*genai.Content{{Parts: []*genai.Part{docPart, {Text: extractionPrompt}}}}
	resp, err := client.Models.GenerateContent(ctx, analysisModel, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return FinancialData{}, fmt.Errorf("extraction unavailable: %w", err)
	}

	var extracted extractedFinancials
	if err := json.Unmarshal([]byte(resp.Text()), &extracted); err != nil {
		return FinancialData{}, fmt.Errorf("extraction unavailable: malformed response: %w", err)
	}
	return mergeFinancials(extracted), nil
}

const reportPromptFormat = `You are the Asset Signal Intelligence Engine.
Current Date: %s.

Analyze this Student Housing asset and its competitors using real-time data.
Asset Profile: %s
Financial Context: NOI Variance is %s.
Prelease Status: %.1f%% (Target: %g%%).
MoM Context: %s

TASK:
1. Use Google Search to find the official websites and current leasing specials for these competitors: %s.
2. Detect REAL, currently active concessions, promotional banners, and pricing shifts.
3. Classify promos into: Gift Card, Free Month, Fee Waiver, Price Drop, Urgency Marketing.
4. Generate a historical timeline of promo activity leading up to today (use search results to infer recent changes).
5. Provide probing questions for Asset Managers (AMs) to ask Property Managers (PMs) for 1) increasing revenue and 2) decreasing OpEx.
   - Do NOT give conclusions or direct commands.
   - Instead, ask investigative questions based on the real-time market data found.
6. Generate a YTD trend data (Jan to current month).

Return JSON with this shape:
{
  "attentionScore": number (1-10),
  "attentionLevel": "Stable" | "Moderate" | "Elevated" | "Critical",
  "preleaseVelocity": { "current": number, "target": number, "variance": number, "status": "Ahead" | "On Track" | "Behind", "history": [{ "date": string, "beds": number }] },
  "compIntelligence": [{ "id", "name", "url", "currentPromo", "promoType", "lastChangeDate", "avgRent", "rentTrend", "isAlert": boolean }],
  "activePromos": [{ "id", "competitorId", "competitorName", "url", "type", "text", "detectedDate", "status": "active" }],
  "historicalTimeline": [{ "date", "promoCount", "avgRent" }],
  "ytdTrend": [{ "month": string, "actualNOI": number, "budgetNOI": number }],
  "strategy": { "revenue": [string], "opex": [string] }
}`

// runIntelligenceReport builds the financial context for a property's latest
// period, asks the model (grounded with Google Search) for competitor
// intelligence, and reconciles the untrusted response into an AnalysisResult.
// records must be sorted newest month first and non-empty.
func runIntelligenceReport(ctx context.Context, client *genai.Client, property *Property, records []MonthlyRecord) (*AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	current := &records[0]
	var prior *MonthlyRecord
	if len(records) > 1 {
		prior = &records[1]
	}

	data := FinancialData{Revenue: current.Revenue, Expenses: current.Expenses}
	noiActual, noiBudget := computeNOI(&data)
	noiVariance := noiActual - noiBudget

	velocity := preleaseVelocity(property.TotalBeds, current.PreleasedBeds, property.TargetOccupancy)
	mom := computeMoM(current, prior)

	profileJSON, err := json.Marshal(property)
	if err != nil {
		return nil, err
	}
	momContext := "No prior month data available."
	if mom != nil {
		b, err := json.Marshal(mom)
		if err != nil {
			return nil, err
		}
		momContext = string(b)
	}
	competitors := ""
	for i, name := range property.CompetitorNames {
		if i > 0 {
			competitors += ", "
		}
		competitors += name
	}

	prompt := fmt.Sprintf(reportPromptFormat,
		time.Now().Format("January 2, 2006"),
		profileJSON,
		fmt.Sprintf("$%.2f", noiVariance),
		velocity.Current,
		property.TargetOccupancy,
		momContext,
		competitors,
	)

	resp, err := client.Models.GenerateContent(ctx, analysisModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("analysis unavailable: %w", err)
	}

	return decodeAnalysisResult([]byte(resp.Text()), velocity, mom)
}

// decodeAnalysisResult parses the model's JSON, defaulting every missing
// field: the response shape is not enforced by any contract, so nothing in
// it is trusted. The prelease block is recomputed server-side; only its
// weekly history comes from the model.
func decodeAnalysisResult(raw []byte, velocity PreleaseVelocity, mom *MoMAnalysis) (*AnalysisResult, error) {
	var result AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("analysis unavailable: malformed response: %w", err)
	}

	if result.AttentionScore == 0 {
		result.AttentionScore = 5
	}
	if result.AttentionLevel == "" {
		result.AttentionLevel = "Moderate"
	}
	history := result.PreleaseVelocity.History
	if history == nil {
		history = []PreleasePoint{}
	}
	result.PreleaseVelocity = velocity
	result.PreleaseVelocity.History = history
	if result.CompIntelligence == nil {
		result.CompIntelligence = []CompIntelligence{}
	}
	if result.ActivePromos == nil {
		result.ActivePromos = []CompPromo{}
	}
	if result.HistoricalTimeline == nil {
		result.HistoricalTimeline = []TimelinePoint{}
	}
	if result.YTDTrend == nil {
		result.YTDTrend = []YTDPoint{}
	}
	if result.Strategy.Revenue == nil {
		result.Strategy.Revenue = []string{}
	}
	if result.Strategy.Opex == nil {
		result.Strategy.Opex = []string{}
	}
	result.MoM = mom
	return &result, nil
}
