package record

// Column is a single declared archive column.
type Column struct {
	Name string
	Type string
}

// Schema is an ordered column declaration.
type Schema []Column

// Names returns the column names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for _, c := range s {
		names = append(names, c.Name)
	}
	return names
}

// DefaultSchema is the archive layout written by the recorder.
var DefaultSchema = Schema{
	{Name: "dateTime", Type: "INTEGER NOT NULL PRIMARY KEY"},
	{Name: "usUnits", Type: "INTEGER NOT NULL"},
	{Name: "interval", Type: "INTEGER NOT NULL"},
	{Name: "mem_vsz", Type: "INTEGER"},
	{Name: "mem_rss", Type: "INTEGER"},
	{Name: "res_rss", Type: "INTEGER"},
	{Name: "swap_total", Type: "INTEGER"},
	{Name: "swap_free", Type: "INTEGER"},
	{Name: "swap_used", Type: "INTEGER"},
	{Name: "mem_total", Type: "INTEGER"},
	{Name: "mem_free", Type: "INTEGER"},
	{Name: "mem_used", Type: "INTEGER"},
}

// MemoryFields lists the columns measured in kilobytes.
var MemoryFields = []string{
	"mem_vsz", "mem_rss", "res_rss",
	"swap_total", "swap_free", "swap_used",
	"mem_total", "mem_free", "mem_used",
}
