package platform

// Builtin returns the default profile set for the five supported platform
// families. The type vocabularies mirror the canonical logical types the
// registration workflow hands out; anything outside these maps is a hard
// compilation error for that platform.
func Builtin() *Set {
	return NewSet(
		&Platform{
			Code:     "postgres",
			Cloud:    "any",
			Category: CategoryRelational,
			Enabled:  true,
			Constraint: ConstraintProfile{
				MaxLength:           63,
				CasePolicy:          "lower",
				AllowedCharsPattern: `[a-z0-9_]`,
				NormalizeRule:       "replace",
				ReplaceWith:         "_",
			},
			TypeMap: TypeMappingProfile{
				"uuidv7":    "uuid",
				"uuid":      "uuid",
				"datetime2": "timestamptz",
				"datetime":  "timestamptz",
				"date":      "date",
				"int":       "integer",
				"bigint":    "bigint",
				"decimal":   "numeric(18,2)",
				"money":     "numeric(19,4)",
				"float":     "double precision",
				"bit":       "boolean",
				"boolean":   "boolean",
				"nvarchar":  "varchar",
				"text":      "text",
			},
		},
		&Platform{
			Code:     "redshift",
			Cloud:    "aws",
			Category: CategoryMPP,
			Enabled:  true,
			Constraint: ConstraintProfile{
				MaxLength:           127,
				CasePolicy:          "lower",
				AllowedCharsPattern: `[a-z0-9_]`,
				NormalizeRule:       "replace",
				ReplaceWith:         "_",
			},
			TypeMap: TypeMappingProfile{
				"uuidv7":    "varchar(36)",
				"uuid":      "varchar(36)",
				"datetime2": "timestamp",
				"datetime":  "timestamp",
				"date":      "date",
				"int":       "integer",
				"bigint":    "bigint",
				"decimal":   "decimal(18,2)",
				"money":     "decimal(19,4)",
				"float":     "double precision",
				"bit":       "boolean",
				"boolean":   "boolean",
				"nvarchar":  "varchar(256)",
				"text":      "varchar(max)",
			},
		},
		&Platform{
			Code:     "bigquery",
			Cloud:    "gcp",
			Category: CategoryWarehouse,
			Enabled:  true,
			Constraint: ConstraintProfile{
				MaxLength:           300,
				CasePolicy:          "preserve",
				AllowedCharsPattern: `[A-Za-z0-9_]`,
				NormalizeRule:       "replace",
				ReplaceWith:         "_",
			},
			TypeMap: TypeMappingProfile{
				"uuidv7":    "STRING",
				"uuid":      "STRING",
				"datetime2": "TIMESTAMP",
				"datetime":  "TIMESTAMP",
				"date":      "DATE",
				"int":       "INT64",
				"bigint":    "INT64",
				"decimal":   "NUMERIC",
				"float":     "FLOAT64",
				"bit":       "BOOL",
				"boolean":   "BOOL",
				"nvarchar":  "STRING",
				"text":      "STRING",
			},
		},
		&Platform{
			Code:     "snowflake",
			Cloud:    "any",
			Category: CategoryWarehouse,
			Enabled:  true,
			Constraint: ConstraintProfile{
				MaxLength:           255,
				CasePolicy:          "preserve",
				AllowedCharsPattern: `[A-Za-z0-9_]`,
				NormalizeRule:       "replace",
				ReplaceWith:         "_",
			},
			TypeMap: TypeMappingProfile{
				"uuidv7":    "VARCHAR(36)",
				"uuid":      "VARCHAR(36)",
				"datetime2": "TIMESTAMP_NTZ",
				"datetime":  "TIMESTAMP_NTZ",
				"date":      "DATE",
				"int":       "INTEGER",
				"bigint":    "BIGINT",
				"decimal":   "DECIMAL(18,2)",
				"money":     "DECIMAL(19,4)",
				"float":     "FLOAT",
				"bit":       "BOOLEAN",
				"boolean":   "BOOLEAN",
				"nvarchar":  "VARCHAR(16777216)",
				"text":      "VARCHAR(16777216)",
			},
		},
		&Platform{
			Code:     "spark",
			Cloud:    "any",
			Category: CategoryLakehouse,
			Enabled:  true,
			Constraint: ConstraintProfile{
				MaxLength:           78,
				CasePolicy:          "lower",
				AllowedCharsPattern: `[a-z0-9_]`,
				NormalizeRule:       "replace",
				ReplaceWith:         "_",
			},
			TypeMap: TypeMappingProfile{
				"uuidv7":    "STRING",
				"uuid":      "STRING",
				"datetime2": "TIMESTAMP",
				"datetime":  "TIMESTAMP",
				"date":      "DATE",
				"int":       "INT",
				"bigint":    "BIGINT",
				"decimal":   "DECIMAL(18,2)",
				"money":     "DECIMAL(19,4)",
				"float":     "DOUBLE",
				"bit":       "BOOLEAN",
				"boolean":   "BOOLEAN",
				"nvarchar":  "STRING",
				"text":      "STRING",
			},
		},
	)
}
