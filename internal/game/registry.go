package game

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
)

var (
	ErrRegistryNotInstalled = errors.New("game: registry not installed")
	ErrRegistryInstalled    = errors.New("game: registry already installed")
	ErrUnknownOrganism      = errors.New("game: unknown organism")
	ErrUnknownTool          = errors.New("game: unknown tool")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type ID uint64

type Organism struct {
	ID         ID          `json:"id"`
	Name       string      `json:"name"`
	Type       uint32      `json:"type"`
	Attribute  string      `json:"attribute"`
	Height     uint32      `json:"height"`
	Width      uint32      `json:"width"`
	ImageID    ID          `json:"img_id"`
	Evolutions []Evolution `json:"evolutions"`
}

type Evolution struct {
	ID     ID     `json:"id"`
	Grade  uint32 `json:"grade"`
	Target ID     `json:"target"`
	ToolID ID     `json:"tool_id"`
	Money  uint64 `json:"money"`
}

type Tool struct {
	ToolID   ID     `json:"tool_id"`
	Name     string `json:"name"`
	ImageID  ID     `json:"image_id"`
	ToolType uint32 `json:"tool_type"`
	TypeName string `json:"type_name"`
}

// Registry is the immutable table of static game data. Lookups are binary
// searches over id-sorted slices.
type Registry struct {
	organisms []Organism
	tools     []Tool
}

type registryFile struct {
	Organisms []Organism `json:"organisms"`
	Tools     []Tool     `json:"tools"`
}

// NewRegistry copies and sorts the given tables.
func NewRegistry(organisms []Organism, tools []Tool) *Registry {
	r := &Registry{
		organisms: append([]Organism(nil), organisms...),
		tools:     append([]Tool(nil), tools...),
	}
	sort.SliceStable(r.organisms, func(i, j int) bool { return r.organisms[i].ID < r.organisms[j].ID })
	sort.SliceStable(r.tools, func(i, j int) bool { return r.tools[i].ToolID < r.tools[j].ToolID })
	return r
}

// LoadRegistry reads {"organisms": [...], "tools": [...]} JSON.
func LoadRegistry(rd io.Reader) (*Registry, error) {
	var f registryFile
	if err := json.NewDecoder(rd).Decode(&f); err != nil {
		return nil, fmt.Errorf("game: decode registry: %w", err)
	}
	return NewRegistry(f.Organisms, f.Tools), nil
}

func LoadRegistryFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("game: open registry: %w", err)
	}
	defer f.Close()
	return LoadRegistry(f)
}

func (r *Registry) Organism(id ID) (Organism, bool) {
	i := sort.Search(len(r.organisms), func(i int) bool { return r.organisms[i].ID >= id })
	if i < len(r.organisms) && r.organisms[i].ID == id {
		return r.organisms[i], true
	}
	return Organism{}, false
}

func (r *Registry) Tool(id ID) (Tool, bool) {
	i := sort.Search(len(r.tools), func(i int) bool { return r.tools[i].ToolID >= id })
	if i < len(r.tools) && r.tools[i].ToolID == id {
		return r.tools[i], true
	}
	return Tool{}, false
}

func (r *Registry) Len() (organisms, tools int) {
	return len(r.organisms), len(r.tools)
}

var current atomic.Pointer[Registry]

// InstallRegistry publishes r process-wide. It succeeds once.
func InstallRegistry(r *Registry) error {
	if r == nil {
		return errors.New("game: nil registry")
	}
	if !current.CompareAndSwap(nil, r) {
		return ErrRegistryInstalled
	}
	return nil
}

func CurrentRegistry() (*Registry, error) {
	r := current.Load()
	if r == nil {
		return nil, ErrRegistryNotInstalled
	}
	return r, nil
}

// UserOrganism is an organism owned by the player.
type UserOrganism struct {
	ID           ID      `json:"id"`
	TargetID     ID      `json:"target_id"`
	Quality      Quality `json:"quality"`
	Skills       []Skill `json:"skills"`
	SpecialSkill *Skill  `json:"special_skill"`
}

type Skill struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Grade uint32 `json:"grade"`
}

// Organism resolves the static organism this one was grown from.
func (u UserOrganism) Organism(reg *Registry) (Organism, error) {
	if o, ok := reg.Organism(u.TargetID); ok {
		return o, nil
	}
	return Organism{}, fmt.Errorf("%w: %d", ErrUnknownOrganism, u.TargetID)
}

type UserTool struct {
	ID     ID     `json:"id"`
	Amount uint64 `json:"amount"`
}

func (u UserTool) Tool(reg *Registry) (Tool, error) {
	if t, ok := reg.Tool(u.ID); ok {
		return t, nil
	}
	return Tool{}, fmt.Errorf("%w: %d", ErrUnknownTool, u.ID)
}
