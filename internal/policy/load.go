package policy

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/caduceon/acteledger/internal/record"
)

// CompileError reports a problem in a policy file, with the CUE
// position when one is available.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Load reads every .cue file in dir, unifies them, and compiles the
// result into a Policy.
func Load(dir string) (*Policy, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &CompileError{Message: fmt.Sprintf("policy directory not found: %s", dir)}
	}
	if err != nil {
		return nil, fmt.Errorf("access policy directory: %w", err)
	}
	if !info.IsDir() {
		return nil, &CompileError{Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scan policy directory: %w", err)
	}
	if len(cueFiles) == 0 {
		return nil, &CompileError{Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &CompileError{Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &CompileError{Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &CompileError{Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	return Compile(value)
}

// Compile turns a CUE value into a Policy. Split out from Load so
// tests can feed values from CompileString.
func Compile(v cue.Value) (*Policy, error) {
	if err := v.Err(); err != nil {
		return nil, &CompileError{Message: err.Error(), Pos: v.Pos()}
	}

	p := &Policy{}

	grantsVal := v.LookupPath(cue.ParsePath("grants"))
	if grantsVal.Exists() {
		iter, err := grantsVal.Fields()
		if err != nil {
			return nil, &CompileError{Field: "grants", Message: err.Error(), Pos: grantsVal.Pos()}
		}
		for iter.Next() {
			rule, err := compileGrant(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			p.Grants = append(p.Grants, rule)
		}
	}

	versionsVal := v.LookupPath(cue.ParsePath("versions"))
	if versionsVal.Exists() {
		iter, err := versionsVal.Fields()
		if err != nil {
			return nil, &CompileError{Field: "versions", Message: err.Error(), Pos: versionsVal.Pos()}
		}
		for iter.Next() {
			seed, err := compileVersion(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			p.Versions = append(p.Versions, seed)
		}
	}

	if len(p.Grants) == 0 && len(p.Versions) == 0 {
		return nil, &CompileError{Message: "policy declares no grants and no versions"}
	}

	return p, nil
}

// compileGrant parses one grants entry: a principal label mapped to a
// list of capability names.
func compileGrant(principal string, v cue.Value) (GrantRule, error) {
	if principal == "" {
		return GrantRule{}, &CompileError{Field: "grants", Message: "principal must not be empty", Pos: v.Pos()}
	}

	iter, err := v.List()
	if err != nil {
		return GrantRule{}, &CompileError{
			Field:   "grants." + principal,
			Message: fmt.Sprintf("expected a list of capabilities: %v", err),
			Pos:     v.Pos(),
		}
	}

	rule := GrantRule{Principal: record.Principal(principal)}
	for iter.Next() {
		name, err := iter.Value().String()
		if err != nil {
			return GrantRule{}, &CompileError{
				Field:   "grants." + principal,
				Message: fmt.Sprintf("capability must be a string: %v", err),
				Pos:     iter.Value().Pos(),
			}
		}
		cap, err := record.ParseCapability(name)
		if err != nil {
			return GrantRule{}, &CompileError{
				Field:   "grants." + principal,
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		rule.Capabilities = append(rule.Capabilities, cap)
	}
	if len(rule.Capabilities) == 0 {
		return GrantRule{}, &CompileError{
			Field:   "grants." + principal,
			Message: "at least one capability is required",
			Pos:     v.Pos(),
		}
	}

	return rule, nil
}

// compileVersion parses one versions entry. The label is the version
// code; name is required, the rest optional.
func compileVersion(code string, v cue.Value) (VersionSeed, error) {
	if code == "" {
		return VersionSeed{}, &CompileError{Field: "versions", Message: "version code must not be empty", Pos: v.Pos()}
	}

	seed := VersionSeed{VersionCode: code}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return VersionSeed{}, &CompileError{
			Field:   "versions." + code,
			Message: "name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return VersionSeed{}, &CompileError{Field: "versions." + code + ".name", Message: err.Error(), Pos: nameVal.Pos()}
	}
	seed.Name = name

	if cs := v.LookupPath(cue.ParsePath("checksum")); cs.Exists() {
		checksum, err := cs.String()
		if err != nil {
			return VersionSeed{}, &CompileError{Field: "versions." + code + ".checksum", Message: err.Error(), Pos: cs.Pos()}
		}
		seed.Checksum = checksum
	}
	if from := v.LookupPath(cue.ParsePath("effective_from")); from.Exists() {
		n, err := from.Int64()
		if err != nil {
			return VersionSeed{}, &CompileError{Field: "versions." + code + ".effective_from", Message: err.Error(), Pos: from.Pos()}
		}
		seed.EffectiveFrom = n
	}
	if until := v.LookupPath(cue.ParsePath("effective_until")); until.Exists() {
		n, err := until.Int64()
		if err != nil {
			return VersionSeed{}, &CompileError{Field: "versions." + code + ".effective_until", Message: err.Error(), Pos: until.Pos()}
		}
		seed.EffectiveUntil = n
	}

	return seed, nil
}

func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
