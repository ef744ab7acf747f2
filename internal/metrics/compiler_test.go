package metrics_test

import (
	"testing"

	"github.com/ozmeta-labs/ozmeta/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetsSorted(t *testing.T) {
	assert.Equal(t, []string{"dax", "python", "spark", "tsql"}, metrics.Targets())
}

func TestCompilePerTarget(t *testing.T) {
	cases := []struct {
		name    string
		formula string
		target  string
		want    string
	}{
		{"tsql brackets fields", "SUM(Order.Total)", "tsql", "SUM([Order].[Total])"},
		{"spark dots fields", "SUM(Order.Total)", "spark", "SUM(Order.Total)"},
		{"dax quotes table", "SUM(Order.Total)", "dax", "SUM('Order'[Total])"},
		{"python pandas", "SUM(Order.Total)", "python", `df["Order.Total"].sum()`},
		{"distinctcount sql", "DISTINCTCOUNT(Order.CustomerID)", "tsql", "COUNT(DISTINCT [Order].[CustomerID])"},
		{"distinctcount dax", "DISTINCTCOUNT(Order.CustomerID)", "dax", "DISTINCTCOUNT('Order'[CustomerID])"},
		{"countrows sql", "COUNTROWS()", "spark", "COUNT(*)"},
		{"countrows python", "COUNTROWS()", "python", "len(df)"},
		{"avg spelled out in dax", "AVG(Order.Total)", "dax", "AVERAGE('Order'[Total])"},
		{"divide guards zero", "DIVIDE(SUM(Order.Total), COUNTROWS())", "tsql",
			"CASE WHEN COUNT(*) = 0 THEN NULL ELSE SUM([Order].[Total]) / COUNT(*) END"},
		{"divide native in dax", "DIVIDE(SUM(Order.Total), COUNTROWS(), 0)", "dax",
			"DIVIDE(SUM('Order'[Total]), COUNTROWS(), 0)"},
		{"if becomes case", "IF(SUM(Order.Total) > 100, 1, 0)", "tsql",
			"CASE WHEN (SUM([Order].[Total]) > 100) THEN 1 ELSE 0 END"},
		{"if without else", "IF(SUM(Order.Total) > 100, 1)", "dax",
			"IF((SUM('Order'[Total]) > 100), 1)"},
		{"equality becomes == in python", "IF(COUNTROWS() = 0, 1, 2)", "python",
			"(1 if (len(df) == 0) else 2)"},
		{"metric ref placeholder", "[NetRevenue] - [Discounts]", "spark",
			"({{NetRevenue}} - {{Discounts}})"},
		{"metric ref in dax", "[NetRevenue] - [Discounts]", "dax",
			"([NetRevenue] - [Discounts])"},
		{"coalesce passthrough", "COALESCE(SUM(Order.Total), 0)", "tsql",
			"COALESCE(SUM([Order].[Total]), 0)"},
		{"string literal quoting", "IF(Customer.Segment = 'VIP', 1, 0)", "tsql",
			"CASE WHEN ([Customer].[Segment] = 'VIP') THEN 1 ELSE 0 END"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := metrics.Compile("M", tc.formula, tc.target)
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.Expression)
		})
	}
}

func TestCompileTargetCaseInsensitive(t *testing.T) {
	c, err := metrics.Compile("M", "COUNTROWS()", "TSQL")
	require.NoError(t, err)
	assert.Equal(t, "tsql", c.Target)
}

func TestCompileUnknownTarget(t *testing.T) {
	_, err := metrics.Compile("M", "COUNTROWS()", "cobol")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown target language "cobol"`)
	assert.Contains(t, err.Error(), "dax, python, spark, tsql")
}

func TestCompileCollectsDependencies(t *testing.T) {
	c, err := metrics.Compile("Margin", "DIVIDE([NetRevenue] - [Costs], [NetRevenue])", "tsql")
	require.NoError(t, err)
	// First-appearance order, no duplicates.
	assert.Equal(t, []string{"NetRevenue", "Costs"}, c.DependsOn)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name    string
		formula string
		message string
	}{
		{"unknown function", "MEDIAN(Order.Total)", `unknown function "MEDIAN"`},
		{"bare identifier", "SUM(Total)", "expected table.field reference"},
		{"empty agg argument", "SUM()", "SUM requires an argument"},
		{"unterminated metric ref", "[NetRevenue", "unterminated metric reference"},
		{"unterminated string", "IF(Customer.DisplayName = 'x, 1, 0)", "unterminated string literal"},
		{"missing paren", "SUM(Order.Total", "missing closing parenthesis in SUM"},
		{"trailing input", "COUNTROWS() extra", "unexpected trailing input"},
		{"empty formula", "", "unexpected end of formula"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := metrics.Parse(tc.formula)
			require.Error(t, err)
			var perr *metrics.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Contains(t, perr.Message, tc.message)
			assert.Equal(t, tc.formula, perr.Formula)
		})
	}
}

func TestParseErrorCarriesPosition(t *testing.T) {
	_, err := metrics.Parse("SUM(Order.Total) ?")
	var perr *metrics.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 17, perr.Pos)
}

func TestParsePrecedence(t *testing.T) {
	expr, err := metrics.Parse("1 + 2 * 3")
	require.NoError(t, err)
	assert.Equal(t, "(1 + (2 * 3))", expr.String())
}
