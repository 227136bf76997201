package csvfile

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderetl/internal/domain"
	"orderetl/internal/schema"
	"orderetl/internal/storage"
)

func TestWriteOrderSummary(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "output")
	repo, err := storage.New(context.Background(), storage.Config{Kind: "csv", Dir: dir})
	require.NoError(t, err)
	defer repo.Close()

	rows := schema.OrderSummaryRows([]domain.OrderSummary{
		{OrderID: 1, TotalAmount: decimal.RequireFromString("40"), TotalTax: decimal.RequireFromString("3")},
		{OrderID: 2, TotalAmount: decimal.RequireFromString("10.005"), TotalTax: decimal.RequireFromString("0.1234")},
	})
	_, err = storage.WriteTable(context.Background(), repo, schema.OrderSummary(), rows, 1, nil)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "order_summary.csv"))
	require.NoError(t, err)
	assert.Equal(t, "order_id,total_amount,total_taxes\n1,40.00,3.00\n2,10.01,0.12\n", string(got))
}

func TestEnsureTableOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo, err := NewRepository(dir)
	require.NoError(t, err)

	def := schema.MonthlyAverages()
	ctx := context.Background()
	rows := schema.MonthlyAverageRows([]domain.MonthlyAverage{
		{Year: 2024, Month: 1, AvgAmount: decimal.RequireFromString("20"), AvgTax: decimal.RequireFromString("0.5")},
	})

	for i := 0; i < 2; i++ {
		require.NoError(t, repo.EnsureTable(ctx, def))
		n, err := repo.CopyFrom(ctx, def.FQN, def.ColumnNames(), rows)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}

	got, err := os.ReadFile(repo.Path(def.FQN))
	require.NoError(t, err)
	assert.Equal(t, "year,month,avg_amount,avg_tax\n2024,1,20.00,0.50\n", string(got))
}

func TestCopyFrom_RowWidthMismatch(t *testing.T) {
	t.Parallel()

	repo, err := NewRepository(t.TempDir())
	require.NoError(t, err)

	def := schema.OrderSummary()
	require.NoError(t, repo.EnsureTable(context.Background(), def))

	_, err = repo.CopyFrom(context.Background(), def.FQN, def.ColumnNames(), [][]any{{int64(1)}})
	assert.ErrorContains(t, err, "length 1 != columns length 3")
}

func TestCopyFrom_CountsRowsBeforeFailure(t *testing.T) {
	t.Parallel()

	repo, err := NewRepository(t.TempDir())
	require.NoError(t, err)

	def := schema.OrderSummary()
	ctx := context.Background()
	require.NoError(t, repo.EnsureTable(ctx, def))

	n, err := repo.CopyFrom(ctx, def.FQN, def.ColumnNames(), [][]any{
		{int64(1), decimal.RequireFromString("5"), decimal.Zero},
		{int64(2)},
		{int64(3), decimal.RequireFromString("7"), decimal.Zero},
	})
	require.Error(t, err)
	assert.Equal(t, int64(1), n)

	got, err := os.ReadFile(repo.Path(def.FQN))
	require.NoError(t, err)
	assert.Equal(t, "order_id,total_amount,total_taxes\n1,5.00,0.00\n", string(got))
}

func TestOrderSummaryReadsBack(t *testing.T) {
	t.Parallel()

	in := []domain.OrderSummary{
		{OrderID: 1, TotalAmount: decimal.RequireFromString("40"), TotalTax: decimal.RequireFromString("3")},
		{OrderID: 42, TotalAmount: decimal.RequireFromString("10.005"), TotalTax: decimal.RequireFromString("0.7049")},
		{OrderID: 9, TotalAmount: decimal.RequireFromString("1234.5678"), TotalTax: decimal.RequireFromString("86.4197")},
	}

	dir := t.TempDir()
	repo, err := NewRepository(dir)
	require.NoError(t, err)
	_, err = storage.WriteTable(context.Background(), repo, schema.OrderSummary(), schema.OrderSummaryRows(in), 2, nil)
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "order_summary.csv"))
	require.NoError(t, err)
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, recs, len(in)+1)
	assert.Equal(t, []string{"order_id", "total_amount", "total_taxes"}, recs[0])
	for i, want := range in {
		rec := recs[i+1]
		assert.Equal(t, strconv.FormatInt(want.OrderID, 10), rec[0])

		amount, err := decimal.NewFromString(rec[1])
		require.NoError(t, err)
		tax, err := decimal.NewFromString(rec[2])
		require.NoError(t, err)
		assert.True(t, amount.Equal(want.TotalAmount.Round(2)), "order %d amount %s", want.OrderID, rec[1])
		assert.True(t, tax.Equal(want.TotalTax.Round(2)), "order %d tax %s", want.OrderID, rec[2])
	}
}

func TestCopyFrom_MissingTableFile(t *testing.T) {
	t.Parallel()

	repo, err := NewRepository(t.TempDir())
	require.NoError(t, err)

	_, err = repo.CopyFrom(context.Background(), "nope", []string{"a"}, [][]any{{"x"}})
	assert.Error(t, err)
}

func TestNewRepository_EmptyDir(t *testing.T) {
	t.Parallel()

	_, err := NewRepository(" ")
	assert.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "7", FormatValue(int64(7)))
	assert.Equal(t, "7", FormatValue(7))
	assert.Equal(t, "1.50", FormatValue(1.5))
	assert.Equal(t, "0.00", FormatValue(decimal.Zero))
	assert.Equal(t, "x", FormatValue("x"))
}
