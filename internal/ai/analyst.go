package ai

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/nhle/kaizen/internal/model"
	"github.com/nhle/kaizen/internal/service"
)

// Amounts in this file are minor currency units.

var (
	discretionary = map[string]bool{"Entertainment": true, "Shopping": true, "Dining Out": true}
	essential     = map[string]bool{"Bills": true, "Healthcare": true, "Transportation": true}
)

const (
	fallbackTip = "Consider comparing prices and looking for deals before making purchases."
	emptyTip    = "Track your expenses regularly to identify savings opportunities."
)

const analystPrompt = `You are an expert personal financial advisor AI with deep expertise in budget management, expense optimization, and financial goal planning.

Your task is to analyze the user's expense data comprehensively and provide:
- Clear, data-driven insights about spending patterns
- Specific, actionable recommendations with exact rupee amounts
- Practical strategies to reduce expenses and increase savings
- Goal-oriented advice to help achieve financial targets
- Budget optimization suggestions

Be encouraging, specific, and practical. Use the actual data provided to give personalized advice. Format your response in markdown with:
- Clear section headers (##, ###)
- Bullet points for lists
- Bold for important numbers and categories
- Specific rupee amounts and percentages from the data

Make it detailed, professional, and actionable.`

// ExpenseAnalysisRequest is the spending data of one month.
type ExpenseAnalysisRequest struct {
	Month      string
	Expenses   []model.Expense // newest first
	Goals      []model.Goal
	TotalSpent int64
	Breakdown  []model.CategoryTotal // largest first
	Budget     int64                 // zero when unset
}

// ExpenseAnalysis is a written analysis plus the locally computed numbers.
type ExpenseAnalysis struct {
	Summary           string
	Insights          []string
	Recommendations   []string
	SavingsPotential  int64
	BudgetSuggestions map[string]int64
}

// RequestFromSummary builds an analysis request from a month summary.
func RequestFromSummary(sum *service.MonthSummary, goals []model.Goal) ExpenseAnalysisRequest {
	return ExpenseAnalysisRequest{
		Month:      sum.Month,
		Expenses:   sum.Recent,
		Goals:      goals,
		TotalSpent: sum.Total,
		Breakdown:  sum.Categories,
		Budget:     sum.Budget,
	}
}

// ExpenseAnalyst writes spending analyses and tips.
type ExpenseAnalyst struct {
	llm      Completer
	model    string
	tipModel string
}

// NewExpenseAnalyst creates an analyst. An empty model selects "sonar-pro".
func NewExpenseAnalyst(llm Completer, modelName string) *ExpenseAnalyst {
	if modelName == "" {
		modelName = "sonar-pro"
	}
	return &ExpenseAnalyst{llm: llm, model: modelName, tipModel: "sonar"}
}

// Analyze asks the model for a markdown analysis of req. When the call fails
// the locally generated FallbackAnalysis is returned instead.
func (a *ExpenseAnalyst) Analyze(ctx context.Context, req ExpenseAnalysisRequest) ExpenseAnalysis {
	out, err := a.llm.Complete(ctx, CompletionRequest{
		Model: a.model,
		Messages: []ChatMessage{
			{Role: string(RoleSystem), Content: analystPrompt},
			{Role: string(RoleUser), Content: "Please analyze my expenses and provide detailed insights and recommendations:\n\n" + expenseContext(req)},
		},
		Temperature: 0.7,
		MaxTokens:   3000,
	})
	if err != nil {
		log.Printf("analyzing expenses: %v; using local analysis", err)
		return FallbackAnalysis(req)
	}
	return ExpenseAnalysis{
		Summary:           out,
		SavingsPotential:  SavingsPotential(req.Breakdown),
		BudgetSuggestions: BudgetSuggestions(req.Breakdown),
	}
}

// Tip asks for one short saving tip for category.
func (a *ExpenseAnalyst) Tip(ctx context.Context, category string) string {
	out, err := a.llm.Complete(ctx, CompletionRequest{
		Model: a.tipModel,
		Messages: []ChatMessage{{
			Role:    string(RoleUser),
			Content: fmt.Sprintf("Give me one practical tip to save money on %s expenses. Keep it under 50 words.", category),
		}},
		Temperature: 0.7,
		MaxTokens:   100,
	})
	if err != nil {
		log.Printf("getting expense tip: %v", err)
		return fallbackTip
	}
	if strings.TrimSpace(out) == "" {
		return emptyTip
	}
	return out
}

// SavingsPotential is a fifth of discretionary spending. "Other" counts as
// discretionary here.
func SavingsPotential(breakdown []model.CategoryTotal) int64 {
	var sum int64
	for _, ct := range breakdown {
		if discretionary[ct.Name] || ct.Name == "Other" {
			sum += ct.Value
		}
	}
	return sum * 20 / 100
}

// BudgetSuggestions proposes a per-category cap: 95% of current spending for
// essentials, 80% for discretionary categories and 90% for the rest.
func BudgetSuggestions(breakdown []model.CategoryTotal) map[string]int64 {
	out := make(map[string]int64, len(breakdown))
	for _, ct := range breakdown {
		switch {
		case essential[ct.Name]:
			out[ct.Name] = ct.Value * 95 / 100
		case discretionary[ct.Name]:
			out[ct.Name] = ct.Value * 80 / 100
		default:
			out[ct.Name] = ct.Value * 90 / 100
		}
	}
	return out
}

func money(minor int64) string {
	return "₹" + service.FormatAmount(minor)
}

func percent(part, whole int64) string {
	if whole == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(part)*100/float64(whole))
}

func scaled(minor int64, pct int64) string {
	return money(minor * pct / 100)
}

func topCategory(breakdown []model.CategoryTotal) model.CategoryTotal {
	if len(breakdown) == 0 {
		return model.CategoryTotal{Name: "None"}
	}
	sorted := append([]model.CategoryTotal(nil), breakdown...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })
	return sorted[0]
}

func budgetStatus(total, budget int64) string {
	switch {
	case budget <= 0:
		return "No budget set"
	case total > budget:
		return "Over budget by " + money(total-budget)
	default:
		return "Under budget by " + money(budget-total)
	}
}

func expenseContext(req ExpenseAnalysisRequest) string {
	var sb strings.Builder
	n := int64(len(req.Expenses))
	avg := int64(0)
	if n > 0 {
		avg = req.TotalSpent / n
	}
	budget := "Not Set"
	if req.Budget > 0 {
		budget = money(req.Budget)
	}
	names := make([]string, 0, len(req.Breakdown))
	for _, ct := range req.Breakdown {
		names = append(names, ct.Name)
	}
	cats := "None"
	if len(names) > 0 {
		cats = strings.Join(names, ", ")
	}
	top := topCategory(req.Breakdown)

	fmt.Fprintf(&sb, "User's Financial Data for %s:\n", req.Month)
	fmt.Fprintf(&sb, "- Total Expenses: %s\n", money(req.TotalSpent))
	fmt.Fprintf(&sb, "- Number of Transactions: %d\n", n)
	fmt.Fprintf(&sb, "- Average Transaction: %s\n", money(avg))
	fmt.Fprintf(&sb, "- Monthly Budget: %s\n", budget)
	fmt.Fprintf(&sb, "- Budget Status: %s\n", budgetStatus(req.TotalSpent, req.Budget))
	fmt.Fprintf(&sb, "- Categories: %s\n", cats)
	fmt.Fprintf(&sb, "- Top Spending Category: %s (%s)\n", top.Name, money(top.Value))

	sb.WriteString("\nCategory Breakdown:\n")
	if len(req.Breakdown) == 0 {
		sb.WriteString("- No expenses recorded yet\n")
	}
	for _, ct := range req.Breakdown {
		fmt.Fprintf(&sb, "- %s: %s (%s%%)\n", ct.Name, money(ct.Value), percent(ct.Value, req.TotalSpent))
	}

	sb.WriteString("\nFinancial Goals:\n")
	if len(req.Goals) == 0 {
		sb.WriteString("- No active financial goals\n")
	}
	for _, g := range req.Goals {
		fmt.Fprintf(&sb, "- %s: %s / %s (%s%% complete, %s remaining) - Target: %s\n",
			g.Title, money(g.CurrentAmount), money(g.TargetAmount),
			percent(g.CurrentAmount, g.TargetAmount), money(g.TargetAmount-g.CurrentAmount),
			g.Deadline.Format("2006-01-02"))
	}

	sb.WriteString("\nRecent Expenses (Last 10):\n")
	if len(req.Expenses) == 0 {
		sb.WriteString("- No expenses recorded yet\n")
	}
	for i, e := range req.Expenses {
		if i == 10 {
			break
		}
		fmt.Fprintf(&sb, "- %s: %s - %s (%s)\n", e.ExpenseDate.Format("2006-01-02"), e.CategoryName, e.Description, money(e.Amount))
	}

	sb.WriteString(`
IMPORTANT: Analyze this data and provide:
1. Comprehensive spending pattern analysis
2. Specific insights about their financial behavior
3. Actionable recommendations to optimize spending
4. Budget recommendations if budget is not set, or advice on staying within budget if set
5. Strategies to achieve their financial goals
6. Potential savings opportunities

Format your response in markdown with clear sections, bullet points, and specific numbers from the data.`)
	return sb.String()
}

// FallbackAnalysis writes an analysis without calling a model.
func FallbackAnalysis(req ExpenseAnalysisRequest) ExpenseAnalysis {
	if len(req.Breakdown) == 0 {
		return ExpenseAnalysis{
			Summary: fmt.Sprintf(`## Financial Overview - %[1]s

### No Expenses Yet

You haven't added any expenses for %[1]s yet. Start tracking your spending to get personalized insights and recommendations!

**Get Started:**
1. Add your first expense
2. Set a monthly budget to track your spending
3. Create financial goals to stay motivated
4. Come back here for insights`, req.Month),
			Insights:          []string{"Start tracking expenses to unlock personalized insights"},
			Recommendations:   []string{"Add your first expense to begin"},
			BudgetSuggestions: map[string]int64{},
		}
	}

	total := req.TotalSpent
	top := topCategory(req.Breakdown)
	count := len(req.Breakdown)
	daily := total / 30
	topPct := percent(top.Value, total)

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Financial Overview - %s\n\n### Quick Stats\n", req.Month)
	fmt.Fprintf(&sb, "- **Total Expenses:** %s\n", money(total))
	if req.Budget > 0 {
		fmt.Fprintf(&sb, "- **Monthly Budget:** %s\n", money(req.Budget))
	} else {
		sb.WriteString("- **Monthly Budget:** Not Set\n")
	}
	fmt.Fprintf(&sb, "- **Budget Status:** %s\n", budgetStatus(total, req.Budget))
	fmt.Fprintf(&sb, "- **Daily Average:** %s\n", money(daily))
	fmt.Fprintf(&sb, "- **Categories Tracked:** %d\n", count)
	fmt.Fprintf(&sb, "- **Active Financial Goals:** %d\n\n---\n\n", len(req.Goals))

	sb.WriteString("### Key Insights\n\n**1. Spending Distribution**\n")
	fmt.Fprintf(&sb, "Your expenses are spread across %d different categories. Your largest expense category is **%s** at %s, representing %s%% of your total monthly spending.\n\n",
		count, top.Name, money(top.Value), topPct)

	sb.WriteString("**2. Budget Performance**\n")
	switch {
	case req.Budget <= 0:
		fmt.Fprintf(&sb, "Setting a monthly budget of around %s would help you track spending better and identify areas for optimization.\n\n", scaled(total, 110))
	case total > req.Budget:
		fmt.Fprintf(&sb, "You've exceeded your monthly budget of %s by %s. Focus on reducing discretionary spending in the remaining days.\n\n", money(req.Budget), money(total-req.Budget))
	default:
		fmt.Fprintf(&sb, "You're %s%% under budget with %s remaining. Consider allocating excess funds to your savings goals.\n\n", percent(req.Budget-total, req.Budget), money(req.Budget-total))
	}

	sb.WriteString("**3. Goal Progress**\n")
	if len(req.Goals) == 0 {
		sb.WriteString("Consider setting specific financial goals to give your savings purpose and motivation.\n")
	} else {
		fmt.Fprintf(&sb, "You're actively working towards %d financial goal%s.\n", len(req.Goals), plural(len(req.Goals)))
		for _, g := range req.Goals {
			fmt.Fprintf(&sb, "   - **%s:** %s / %s (%s%%)\n", g.Title, money(g.CurrentAmount), money(g.TargetAmount), percent(g.CurrentAmount, g.TargetAmount))
		}
	}

	sb.WriteString("\n---\n\n### Recommendations\n\n")
	fmt.Fprintf(&sb, "1. **Review %s expenses.** Target a 15-20%% reduction (about %s).\n", top.Name, scaled(top.Value, 17))
	sb.WriteString("2. **Set category limits** for your top 3 expense categories.\n")
	fmt.Fprintf(&sb, "3. **Optimize recurring expenses.** Cancelling unused services could save about %s.\n", scaled(total, 10))
	fmt.Fprintf(&sb, "4. **Apply the 50/30/20 rule:** needs %s, wants %s, savings %s.\n", scaled(total, 50), scaled(total, 30), scaled(total, 20))
	fmt.Fprintf(&sb, "5. **Build an emergency fund** of about %s.\n\n", scaled(total, 400))
	fmt.Fprintf(&sb, "### Savings Potential\n\nYou could save about **%s** per month, or %s a year.\n", scaled(total, 20), scaled(total, 240))

	level := "relatively controlled spending"
	if daily > 100000 {
		level = "opportunities for optimization"
	}
	goalNote := "- consider setting some"
	if len(req.Goals) > 0 {
		goalNote = "driving your savings strategy"
	}
	breadth := "- consider adding more for better insights"
	if count > 5 {
		breadth = "shows good financial awareness"
	}

	return ExpenseAnalysis{
		Summary: sb.String(),
		Insights: []string{
			fmt.Sprintf("Your highest spending category is %s at %s (%s%% of total)", top.Name, money(top.Value), topPct),
			fmt.Sprintf("Average daily spending of %s indicates %s", money(daily), level),
			fmt.Sprintf("You have %d active financial goal%s %s", len(req.Goals), plural(len(req.Goals)), goalNote),
			fmt.Sprintf("Tracking %d categories %s", count, breadth),
		},
		Recommendations: []string{
			fmt.Sprintf("Set a monthly cap of %s for %s (15%% reduction)", scaled(top.Value, 85), top.Name),
			"Review and optimize your top 3 spending categories this week",
			"Automate savings transfers immediately after receiving income",
			"Audit all subscription services and cancel unused ones",
			"Apply the 50/30/20 budgeting framework to balance spending and savings",
			"Set up spending alerts for major expense categories",
		},
		SavingsPotential:  SavingsPotential(req.Breakdown),
		BudgetSuggestions: BudgetSuggestions(req.Breakdown),
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
