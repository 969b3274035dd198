package memrepo

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/i2y/toolwrap/internal/domain"
	"github.com/i2y/toolwrap/internal/usecase"
)

// InMemoryToolRepository implements usecase.ToolRepository with two maps:
// tools keyed by raw name and schema entries keyed by method name.
// NOTE: both tables are rebuilt on every wrapper initialization; nothing is persisted.
type InMemoryToolRepository struct {
	mu      sync.RWMutex
	tools   map[string]usecase.SynthesizedTool // raw name -> tool
	methods map[string]string                  // method name -> raw name
	schemas map[string]domain.SchemaEntry      // method name -> schema
	logger  *slog.Logger
}

// NewInMemoryToolRepository creates an empty repository.
func NewInMemoryToolRepository(logger *slog.Logger) *InMemoryToolRepository {
	return &InMemoryToolRepository{
		tools:   make(map[string]usecase.SynthesizedTool),
		methods: make(map[string]string),
		schemas: make(map[string]domain.SchemaEntry),
		logger:  logger.With("component", "mem_repo"),
	}
}

// Register stores tool by raw name and entry by method name. A later tool with
// the same method name replaces the earlier one in the method table.
func (r *InMemoryToolRepository) Register(tool usecase.SynthesizedTool, entry domain.SchemaEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rawName := tool.Descriptor.RawName
	if rawName == "" {
		r.logger.Warn("Skipping tool with empty name during register", slog.String("method_name", tool.MethodName))
		return
	}
	if previous, ok := r.methods[entry.MethodName]; ok && previous != rawName {
		r.logger.Debug("Overwriting method name", slog.String("method_name", entry.MethodName),
			slog.String("previous", previous), slog.String("tool_name", rawName))
	}
	r.tools[rawName] = tool
	r.methods[entry.MethodName] = rawName
	r.schemas[entry.MethodName] = entry
}

// FindByRawName retrieves a tool by raw name.
func (r *InMemoryToolRepository) FindByRawName(rawName string) (usecase.SynthesizedTool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[rawName]
	return tool, ok
}

// FindByMethodName tries the exact method name, then the name with hyphens
// converted to underscores, then tools whose clean or raw name equals the
// hyphenated form of name.
func (r *InMemoryToolRepository) FindByMethodName(name string) (usecase.SynthesizedTool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if tool, ok := r.byMethod(name); ok {
		return tool, true
	}
	if tool, ok := r.byMethod(domain.MethodName(name)); ok {
		return tool, true
	}
	hyphenated := domain.HyphenatedName(name)
	for _, rawName := range r.sortedRawNames() {
		tool := r.tools[rawName]
		if rawName == hyphenated || tool.Descriptor.CleanName == hyphenated {
			return tool, true
		}
	}
	r.logger.Debug("Method not found", slog.String("method_name", name))
	return usecase.SynthesizedTool{}, false
}

func (r *InMemoryToolRepository) byMethod(methodName string) (usecase.SynthesizedTool, bool) {
	rawName, ok := r.methods[methodName]
	if !ok {
		return usecase.SynthesizedTool{}, false
	}
	tool, ok := r.tools[rawName]
	return tool, ok
}

// List returns every tool in the raw-name table, sorted by raw name.
func (r *InMemoryToolRepository) List() []usecase.SynthesizedTool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rawNames := r.sortedRawNames()
	list := make([]usecase.SynthesizedTool, 0, len(rawNames))
	for _, rawName := range rawNames {
		list = append(list, r.tools[rawName])
	}
	return list
}

// sortedRawNames must be called with r.mu held.
func (r *InMemoryToolRepository) sortedRawNames() []string {
	rawNames := make([]string, 0, len(r.tools))
	for rawName := range r.tools {
		rawNames = append(rawNames, rawName)
	}
	sort.Strings(rawNames)
	return rawNames
}

// Schemas returns the schema table sorted by method name.
func (r *InMemoryToolRepository) Schemas() []domain.SchemaEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]domain.SchemaEntry, 0, len(r.schemas))
	for _, entry := range r.schemas {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].MethodName < entries[j].MethodName })
	return entries
}

// Reset drops every registered tool and schema.
func (r *InMemoryToolRepository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools = make(map[string]usecase.SynthesizedTool)
	r.methods = make(map[string]string)
	r.schemas = make(map[string]domain.SchemaEntry)
	r.logger.Debug("Repository reset")
}
