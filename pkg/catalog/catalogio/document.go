package catalogio

// The YAML documents the loader understands. Field names follow the catalog
// model; references between elements (index columns, constraint indexes,
// partition and evict columns, materializer) are by name and resolved by Load.

type databaseDoc struct {
	Name    string      `mapstructure:"name"`
	ID      int32       `mapstructure:"id"`
	Tables  []tableDoc  `mapstructure:"tables"`
	Exports []exportDoc `mapstructure:"exports"`
}

type tableDoc struct {
	Name            string          `mapstructure:"name"`
	ID              *int32          `mapstructure:"id"`
	Columns         []columnDoc     `mapstructure:"columns"`
	Indexes         []indexDoc      `mapstructure:"indexes"`
	Constraints     []constraintDoc `mapstructure:"constraints"`
	PartitionColumn string          `mapstructure:"partition_column"`
	Evictable       bool            `mapstructure:"evictable"`
	BatchEvicted    bool            `mapstructure:"batch_evicted"`
	Materializer    string          `mapstructure:"materializer"`
	MapReduce       bool            `mapstructure:"mapreduce"`
	EvictColumns    []string        `mapstructure:"evict_columns"`
}

// columnDoc.Index overrides the ordinal, which defaults to the list position.
type columnDoc struct {
	Name     string `mapstructure:"name"`
	Index    *int32 `mapstructure:"index"`
	Type     string `mapstructure:"type"`
	Size     int32  `mapstructure:"size"`
	Nullable bool   `mapstructure:"nullable"`
}

// indexDoc.Columns lists key columns in key order.
type indexDoc struct {
	Name    string   `mapstructure:"name"`
	Type    string   `mapstructure:"type"`
	Unique  bool     `mapstructure:"unique"`
	Columns []string `mapstructure:"columns"`
}

type constraintDoc struct {
	Name  string `mapstructure:"name"`
	Type  string `mapstructure:"type"`
	Index string `mapstructure:"index"`
}

type exportDoc struct {
	Table      string `mapstructure:"table"`
	AppendOnly bool   `mapstructure:"append_only"`
}

// procedureDoc lists the columns one stored procedure touches, as TABLE.COLUMN.
type procedureDoc struct {
	Name    string   `mapstructure:"name"`
	Columns []string `mapstructure:"columns"`
}
