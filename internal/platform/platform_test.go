package platform_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ozmeta-labs/ozmeta/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinSet(t *testing.T) {
	set := platform.Builtin()
	assert.Equal(t, []string{"bigquery", "postgres", "redshift", "snowflake", "spark"}, set.Codes())

	pg, ok := set.Get("postgres")
	require.True(t, ok)
	assert.Equal(t, platform.CategoryRelational, pg.Category)
	assert.Equal(t, 63, pg.Constraint.MaxLength)
	assert.Equal(t, "lower", pg.Constraint.CasePolicy)

	bq, ok := set.Get("bigquery")
	require.True(t, ok)
	assert.Equal(t, "preserve", bq.Constraint.CasePolicy)
}

func TestResolveType(t *testing.T) {
	set := platform.Builtin()

	cases := []struct {
		logical  string
		platform string
		want     string
	}{
		{"uuidv7", "postgres", "uuid"},
		{"uuidv7", "redshift", "varchar(36)"},
		{"money", "postgres", "numeric(19,4)"},
		{"nvarchar", "snowflake", "VARCHAR(16777216)"},
		{"DateTime2", "bigquery", "TIMESTAMP"}, // lookup is case-insensitive
		{"bit", "spark", "BOOLEAN"},
	}
	for _, tc := range cases {
		got, err := set.ResolveType(tc.logical, tc.platform)
		require.NoError(t, err, "%s on %s", tc.logical, tc.platform)
		assert.Equal(t, tc.want, got)
	}
}

func TestResolveTypeUnmapped(t *testing.T) {
	set := platform.Builtin()

	// BigQuery deliberately carries no money mapping.
	_, err := set.ResolveType("money", "bigquery")
	require.Error(t, err)
	var unmapped *platform.UnmappedTypeError
	require.ErrorAs(t, err, &unmapped)
	assert.Equal(t, "money", unmapped.LogicalType)
	assert.Equal(t, "bigquery", unmapped.PlatformCode)

	_, err = set.ResolveType("uuid", "oracle")
	assert.ErrorContains(t, err, `unknown platform "oracle"`)
}

func TestSupportsDeclarativeFK(t *testing.T) {
	set := platform.Builtin()
	for code, want := range map[string]bool{
		"postgres":  true,
		"redshift":  true,
		"bigquery":  false,
		"snowflake": false,
		"spark":     false,
	} {
		p, ok := set.Get(code)
		require.True(t, ok)
		assert.Equal(t, want, p.SupportsDeclarativeFK(), code)
	}
}

func TestLoadSetLayersOverBuiltin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	doc := `platforms:
  - code: postgres
    cloud: any
    category: relational
    enabled: true
    constraint:
      maxLength: 30
      casePolicy: lower
      allowedCharsPattern: "[a-z0-9_]"
      normalizeRule: strip
    types:
      uuid: uuid
  - code: mysql
    cloud: any
    category: relational
    enabled: true
    constraint:
      maxLength: 63
      casePolicy: lower
      allowedCharsPattern: "[a-z0-9_]"
      normalizeRule: replace
      replaceWith: "_"
    types:
      uuid: CHAR(36)
      int: INTEGER
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	set, err := platform.LoadSet(path)
	require.NoError(t, err)

	// The file entry replaces the builtin postgres profile wholesale.
	pg, ok := set.Get("postgres")
	require.True(t, ok)
	assert.Equal(t, 30, pg.Constraint.MaxLength)
	assert.Equal(t, "strip", pg.Constraint.NormalizeRule)
	_, err = set.ResolveType("money", "postgres")
	assert.Error(t, err)

	// New platforms join the set alongside untouched builtins.
	got, err := set.ResolveType("int", "mysql")
	require.NoError(t, err)
	assert.Equal(t, "INTEGER", got)
	_, ok = set.Get("snowflake")
	assert.True(t, ok)
}

func TestLoadSetWithoutPathReturnsBuiltin(t *testing.T) {
	set, err := platform.LoadSet("")
	require.NoError(t, err)
	assert.Len(t, set.Codes(), 5)
}

func TestLoadSetErrors(t *testing.T) {
	_, err := platform.LoadSet(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading profile set")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("platforms:\n  - code: ''\n"), 0o600))
	_, err = platform.LoadSet(bad)
	assert.ErrorContains(t, err, "platform with empty code")
}
