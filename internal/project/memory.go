package project

import "time"

// MemoryInstance is an in-memory Instance used by the CLI and tests
type MemoryInstance struct {
	Primary   int
	Secondary int
	Model     string
	Start     time.Time
	Imported  map[string][]string // category -> file names
	NextStep  string
	Casts     []time.Time
}

// PrimarySerial implements Instance
func (m *MemoryInstance) PrimarySerial() int { return m.Primary }

// SecondarySerial implements Instance
func (m *MemoryInstance) SecondarySerial() int { return m.Secondary }

// SonarModel implements Instance
func (m *MemoryInstance) SonarModel() string { return m.Model }

// DataStart implements Instance
func (m *MemoryInstance) DataStart() time.Time { return m.Start }

// ImportedFiles implements Instance
func (m *MemoryInstance) ImportedFiles(category string) []string {
	if m.Imported == nil {
		return nil
	}
	return m.Imported[category]
}

// NextProcessingStep implements Instance
func (m *MemoryInstance) NextProcessingStep() string { return m.NextStep }

// CastTimes implements Instance
func (m *MemoryInstance) CastTimes() []time.Time { return m.Casts }

// MarkImported appends file names to a category's imported list
func (m *MemoryInstance) MarkImported(category string, names ...string) {
	if m.Imported == nil {
		m.Imported = make(map[string][]string)
	}
	m.Imported[category] = append(m.Imported[category], names...)
}

// MemoryProject is an in-memory Project implementation
type MemoryProject struct {
	instances map[string]Instance
}

// NewMemoryProject creates an empty in-memory project
func NewMemoryProject() *MemoryProject {
	return &MemoryProject{instances: make(map[string]Instance)}
}

// Instances implements Project
func (p *MemoryProject) Instances() map[string]Instance {
	out := make(map[string]Instance, len(p.instances))
	for k, v := range p.instances {
		out[k] = v
	}
	return out
}

// SetInstance implements Project
func (p *MemoryProject) SetInstance(destination string, inst Instance) {
	p.instances[destination] = inst
}

// LookupBySerial implements Project
func (p *MemoryProject) LookupBySerial(primary, secondary int, sameDayAs time.Time) (string, Instance, bool) {
	day := sameDayAs.UTC().Truncate(24 * time.Hour)
	for dest, inst := range p.instances {
		if inst.PrimarySerial() != primary || inst.SecondarySerial() != secondary {
			continue
		}
		if inst.DataStart().UTC().Truncate(24 * time.Hour).Equal(day) {
			return dest, inst, true
		}
	}
	return "", nil, false
}
