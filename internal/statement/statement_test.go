package statement

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"reconledger-backend/internal/domain"
)

const brazilianCSV = "\ufeffBanco Exemplo S.A.;;;\n" +
	"Extrato de conta corrente;;;\n" +
	";;;\n" +
	"Data;Histórico;Documento;Valor (R$)\n" +
	"01/09/2026;SALDO ANTERIOR;;10.000,00\n" +
	"02/09/2026;PIX RECEBIDO JOÃO SILVA;123;1.500,00\n" +
	"03/09/2026;TARIFA PACOTE;;-45,90\n" +
	"04/09/2026;TED ENVIADA FORNECEDOR;;(2.000,00)\n" +
	";Total;;\n"

func TestRead_CSVWithPreamble(t *testing.T) {
	rows, err := Read("extrato.csv", strings.NewReader(brazilianCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 6, rows[0].Line)
	assert.Equal(t, time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("1500")))
	assert.Equal(t, "PIX RECEBIDO JOÃO SILVA", rows[0].Memo)
	assert.Equal(t, domain.DirectionInflow, rows[0].Direction())

	assert.True(t, rows[1].Amount.Equal(decimal.RequireFromString("-45.90")))
	assert.Equal(t, domain.DirectionOutflow, rows[1].Direction())
	assert.True(t, rows[2].Amount.Equal(decimal.RequireFromString("-2000")))
}

func TestRead_SplitInflowOutflowColumns(t *testing.T) {
	csv := "Date,Description,Inflow,Outflow\n" +
		"2026-09-05,Client payment,\"1,250.00\",\n" +
		"2026-09-06,Office rent,,980.10\n"

	rows, err := Read("statement.csv", strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("1250")))
	assert.True(t, rows[1].Amount.Equal(decimal.RequireFromString("-980.10")))
}

func TestRead_MissingColumns(t *testing.T) {
	_, err := Read("bad.csv", strings.NewReader("Data;Valor\n01/09/2026;10,00\n"))

	var integrationErr *domain.IntegrationError
	require.True(t, errors.As(err, &integrationErr))
	assert.Equal(t, []string{"description"}, integrationErr.Missing)
}

func TestRead_HeaderBeyondScanWindow(t *testing.T) {
	preamble := strings.Repeat("linha;;\n", HeaderScanRows)
	_, err := Read("late.csv", strings.NewReader(preamble+"Data;Histórico;Valor\n01/09/2026;x;1,00\n"))

	var integrationErr *domain.IntegrationError
	require.True(t, errors.As(err, &integrationErr))
	assert.ElementsMatch(t, []string{"date", "value (or inflow/outflow)", "description"}, integrationErr.Missing)
}

func TestRead_InvalidAmount(t *testing.T) {
	_, err := Read("bad.csv", strings.NewReader("Data;Descrição;Valor\n01/09/2026;x;abc\n"))

	var integrationErr *domain.IntegrationError
	require.True(t, errors.As(err, &integrationErr))
	assert.Contains(t, integrationErr.Reason, "line 2")
}

func TestRead_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	cells := [][]any{
		{"Extrato"},
		{},
		{"Data Lançamento", "Descrição", "Crédito", "Débito"},
		{"10/09/2026", "PIX Maria Souza", "800,00", ""},
		{"11/09/2026", "Pagamento boleto", "", "120,00"},
	}
	for i, row := range cells {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := Read("extrato.xlsx", buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("800")))
	assert.Equal(t, "PIX Maria Souza", rows[0].Memo)
	assert.True(t, rows[1].Amount.Equal(decimal.RequireFromString("-120")))
}

func TestParseAmount(t *testing.T) {
	tests := map[string]string{
		"1.234,56":    "1234.56",
		"1,234.56":    "1234.56",
		"-45,90":      "-45.90",
		"(12,00)":     "-12",
		"R$ 1.000,00": "1000",
		"350,00 D":    "-350",
		"350,00 C":    "350",
		"99-":         "-99",
		"1.000.000":   "1000000",
		"12.5":        "12.5",
	}
	for in, want := range tests {
		got, err := parseAmount(in, styleUnknown)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%s => %s, want %s", in, got, want)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"02/09/2026", "2026-09-02", "02/09/26", "02/09/2026 10:30", "46267"} {
		got, ok := parseDate(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := parseDate("SALDO")
	assert.False(t, ok)
}

func TestParseAmount_LoneDotFollowsSheetStyle(t *testing.T) {
	got, err := parseAmount("1.500", styleComma)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("1500")), "got %s", got)

	got, err = parseAmount("1.500", styleDot)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("1.5")), "got %s", got)

	_, err = parseAmount("1.500", styleUnknown)
	assert.Error(t, err)
}

func TestRead_ThousandsWithoutDecimals(t *testing.T) {
	csv := "Data;Histórico;Valor\n" +
		"02/09/2026;PIX RECEBIDO;1.500\n" +
		"03/09/2026;TARIFA;-45,90\n"

	rows, err := Read("extrato.csv", strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("1500")), "got %s", rows[0].Amount)
	assert.True(t, rows[1].Amount.Equal(decimal.RequireFromString("-45.90")))
}

func TestRead_AmbiguousThousandsRejected(t *testing.T) {
	_, err := Read("extrato.csv", strings.NewReader("Data;Histórico;Valor\n02/09/2026;PIX RECEBIDO;1.500\n"))

	var integrationErr *domain.IntegrationError
	require.True(t, errors.As(err, &integrationErr))
	assert.Contains(t, integrationErr.Reason, "ambiguous")
}
