package snn

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1
)

const (
	RuleNoOp    = "none"
	RulePostPre = "post_pre"
)

var (
	ErrRuleExists   = errors.New("learning rule already registered")
	ErrRuleNotFound = errors.New("learning rule not found")
	ErrRuleVersion  = errors.New("learning rule version mismatch")
)

// RuleFunc applies one step of weight updates to c from the current spikes
// and traces of its endpoints.
type RuleFunc func(c *Connection)

type RuleSpec struct {
	Name          string
	Func          RuleFunc
	SchemaVersion int
	CodecVersion  int
}

type registeredRule struct {
	fn            RuleFunc
	schemaVersion int
	codecVersion  int
}

var ruleRegistry = struct {
	mu sync.RWMutex
	m  map[string]registeredRule
}{
	m: make(map[string]registeredRule),
}

func init() {
	initializeBuiltInRules()
}

func initializeBuiltInRules() {
	MustRegisterRule(RuleNoOp, func(*Connection) {})
	MustRegisterRule(RulePostPre, postPre)
}

func RegisterRule(name string, fn RuleFunc) error {
	return RegisterRuleWithSpec(RuleSpec{
		Name:          name,
		Func:          fn,
		SchemaVersion: SupportedSchemaVersion,
		CodecVersion:  SupportedCodecVersion,
	})
}

func MustRegisterRule(name string, fn RuleFunc) {
	if err := RegisterRule(name, fn); err != nil {
		panic(err)
	}
}

func RegisterRuleWithSpec(spec RuleSpec) error {
	if spec.Name == "" {
		return errors.New("learning rule name is required")
	}
	if spec.Func == nil {
		return errors.New("learning rule function is required")
	}
	if spec.SchemaVersion != SupportedSchemaVersion || spec.CodecVersion != SupportedCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrRuleVersion, spec.SchemaVersion, spec.CodecVersion)
	}

	ruleRegistry.mu.Lock()
	defer ruleRegistry.mu.Unlock()

	if _, exists := ruleRegistry.m[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrRuleExists, spec.Name)
	}
	ruleRegistry.m[spec.Name] = registeredRule{
		fn:            spec.Func,
		schemaVersion: spec.SchemaVersion,
		codecVersion:  spec.CodecVersion,
	}
	return nil
}

func GetRule(name string) (RuleFunc, error) {
	if name == "" {
		name = RuleNoOp
	}
	ruleRegistry.mu.RLock()
	entry, ok := ruleRegistry.m[name]
	ruleRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, name)
	}
	if entry.schemaVersion != SupportedSchemaVersion || entry.codecVersion != SupportedCodecVersion {
		return nil, fmt.Errorf("%w: %s", ErrRuleVersion, name)
	}
	return entry.fn, nil
}

func ListRules() []string {
	ruleRegistry.mu.RLock()
	defer ruleRegistry.mu.RUnlock()

	names := make([]string, 0, len(ruleRegistry.m))
	for name := range ruleRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetRuleRegistryForTests() {
	ruleRegistry.mu.Lock()
	ruleRegistry.m = make(map[string]registeredRule)
	ruleRegistry.mu.Unlock()
	initializeBuiltInRules()
}

// postPre depresses on presynaptic spikes by nu_pre times the postsynaptic
// trace and potentiates on postsynaptic spikes by nu_post times the
// presynaptic trace.
func postPre(c *Connection) {
	src, dst := c.Source, c.Target
	rows, cols := c.W.Dims()
	raw := c.W.RawMatrix()
	changed := false

	if c.NuPre != 0 {
		for i := 0; i < rows; i++ {
			if !src.Spikes[i] {
				continue
			}
			row := raw.Data[i*raw.Stride : i*raw.Stride+cols]
			for j, x := range dst.Trace {
				row[j] -= c.NuPre * x
			}
			changed = true
		}
	}
	if c.NuPost != 0 {
		for j := 0; j < cols; j++ {
			if !dst.Spikes[j] {
				continue
			}
			for i, x := range src.Trace {
				raw.Data[i*raw.Stride+j] += c.NuPost * x
			}
			changed = true
		}
	}
	if changed {
		c.clampWeights()
	}
}
