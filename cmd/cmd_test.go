package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fyerfyer/finsight/api/middleware"
	"github.com/fyerfyer/finsight/internal/analysis"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prospectusText = "TABLE OF CONTENTS\nRisk Factors ..... 1\nSummary of financial information ..... 2\nOur Business ..... 3\f" +
	"SUMMARY BALANCE SHEET\n(Rs. in crore)\n" +
	"Particulars    FY2024    FY2023\n" +
	"Total Assets    1,000    900\n" +
	"Total Equity    600    550\n" +
	"Total Liabilities    400    350\f" +
	"Our business is the manufacture of industrial pumps."

const narrativeText = "Contents\nManagement’s Discussion and Analysis 2\nFinancial Statements 4\f\f\f" +
	"Revenue grew   by 18% in the year.\f" +
	"Margins improved.\f" +
	"Debt was re-\nduced.\f" +
	"Financial statements begin here.\f" +
	"Notes to accounts."

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// runCmd 以临时目录中不存在的配置文件执行命令
func runCmd(t *testing.T, args ...string) (string, error) {
	middleware.GetLogger().SetOutput(io.Discard)

	dir := t.TempDir()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(dir, "config.yaml"),
		"--env-file", "",
		"--log-level", "error",
	}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyzeFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "Acme_Industries_DRHP.txt", prospectusText)
	empty := writeFile(t, dir, "empty.txt", "  \n")
	missing := filepath.Join(dir, "missing.txt")

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	pipeline := analysis.NewFinancialPipeline(analysis.DefaultOptions(), analysis.WithLogger(logger))

	outcomes := analyzeFiles(context.Background(), pipeline, []string{good, empty, missing}, 2, logger)
	require.Len(t, outcomes, 3)

	assert.Equal(t, good, outcomes[0].File)
	require.NotNil(t, outcomes[0].Result)
	assert.Equal(t, "Acme Industries Drhp", outcomes[0].Result.Company)
	assert.Empty(t, outcomes[0].Error)

	assert.Nil(t, outcomes[1].Result)
	assert.NotEmpty(t, outcomes[1].Error)
	assert.Nil(t, outcomes[2].Result)
	assert.NotEmpty(t, outcomes[2].Error)
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "Acme_Industries_DRHP.txt", prospectusText)

	out, err := runCmd(t, "analyze", good)
	require.NoError(t, err)

	var outcomes []fileOutcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcomes))
	require.Len(t, outcomes, 1)
	require.NotNil(t, outcomes[0].Result)
	require.NotNil(t, outcomes[0].Result.ImportantKPIs.TotalAssets)
	assert.Equal(t, 1000.0, *outcomes[0].Result.ImportantKPIs.TotalAssets)

	out, err = runCmd(t, "analyze", "--format", "md", good)
	require.NoError(t, err)
	assert.Contains(t, out, "Acme Industries Drhp")

	outDir := filepath.Join(dir, "out")
	_, err = runCmd(t, "analyze", "--format", "md", "--output", outDir, good)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "Acme_Industries_DRHP.md"))

	_, err = runCmd(t, "analyze", "--format", "csv", good)
	assert.ErrorContains(t, err, "unsupported format")

	_, err = runCmd(t, "analyze", good, filepath.Join(dir, "missing.txt"))
	assert.ErrorContains(t, err, "1 of 2 files failed")
}

func TestSummarizeCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pine-labs.txt", narrativeText)

	out, err := runCmd(t, "summarize", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Pine Labs")
	assert.Contains(t, out, "pages 4-6")
	assert.Contains(t, out, "Debt was reduced.")

	out, err = runCmd(t, "summarize", "--json", "--sentences", "3", path)
	require.NoError(t, err)
	var result analysis.NarrativeResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)

	other := writeFile(t, dir, "acme.txt", prospectusText)
	_, err = runCmd(t, "summarize", other)
	assert.ErrorContains(t, err, "MDA section not found in TOC")
}
