// Package lua provides a Lua plugin system for form spam scoring.
// Scripts define a "check" function taking the normalized text and returning
// a score (number in [0,1]) and a reason (string).
package lua

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/umputun/form-spam/lib/formspam"
	"github.com/umputun/form-spam/lib/spamcheck"
)

// Checker implements a Lua plugin engine for heuristic checks, thread-safe.
// A single Lua state is shared by all scripts, calls are serialized.
type Checker struct {
	vm       *lua.LState
	checkers map[string]*lua.LFunction
	mu       sync.Mutex
}

// NewChecker creates a new Checker
func NewChecker() *Checker {
	L := lua.NewState()
	lc := &Checker{
		vm:       L,
		checkers: make(map[string]*lua.LFunction),
	}
	lc.RegisterHelpers() // register helper functions
	return lc
}

// LoadScript loads a Lua script and registers it as a checker, named by file name without extension
func (c *Checker) LoadScript(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadScript(path)
}

// ReloadScript loads a changed script again, replacing the previous version
func (c *Checker) ReloadScript(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("script %s not found: %w", path, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadScript(path)
}

// RemoveScript unregisters a checker by name
func (c *Checker) RemoveScript(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checkers, name)
}

// LoadDirectory loads all Lua scripts from a directory
func (c *Checker) LoadDirectory(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return fmt.Errorf("failed to list Lua scripts in %s: %w", dir, err)
	}

	for _, file := range files {
		if err := c.LoadScript(file); err != nil {
			return fmt.Errorf("failed to load script %s: %w", file, err)
		}
	}

	return nil
}

// Names returns sorted names of loaded checkers
func (c *Checker) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]string, 0, len(c.checkers))
	for name := range c.checkers {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// GetCheck returns a heuristic check for the named Lua checker.
// The check resolves the script on each call, so reloads are picked up.
func (c *Checker) GetCheck(name string) (formspam.Check, error) {
	c.mu.Lock()
	_, ok := c.checkers[name]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("lua checker %q not found", name)
	}
	return c.makeCheck(name), nil
}

// GetAllChecks returns all loaded Lua checks
func (c *Checker) GetAllChecks() map[string]formspam.Check {
	result := make(map[string]formspam.Check)
	for _, name := range c.Names() {
		result[name] = c.makeCheck(name)
	}
	return result
}

// Close cleans up resources used by the Checker
func (c *Checker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vm.Close()
}

func (c *Checker) loadScript(path string) error {
	// reset global check to detect scripts without it
	c.vm.SetGlobal("check", lua.LNil)
	if err := c.vm.DoFile(path); err != nil {
		return fmt.Errorf("failed to load Lua script: %w", err)
	}

	checkFunc := c.vm.GetGlobal("check")
	if checkFunc.Type() != lua.LTFunction {
		return fmt.Errorf("script must define a 'check' function")
	}

	name := filepath.Base(path)
	name = name[:len(name)-len(filepath.Ext(name))]
	c.checkers[name] = checkFunc.(*lua.LFunction)
	return nil
}

// makeCheck creates a check function calling the Lua checker with text and a meta table
func (c *Checker) makeCheck(name string) formspam.Check {
	return func(text string) spamcheck.CheckResult {
		res := spamcheck.CheckResult{Name: "lua-" + name}

		c.mu.Lock()
		defer c.mu.Unlock()

		checker, ok := c.checkers[name]
		if !ok {
			return res // removed since the check was made
		}

		meta := c.vm.NewTable()
		meta.RawSetString("length", lua.LNumber(len([]rune(text))))
		meta.RawSetString("language", lua.LString(formspam.DetectLanguage(text)))

		if err := c.vm.CallByParam(lua.P{
			Fn:      checker,
			NRet:    2,
			Protect: true,
		}, lua.LString(text), meta); err != nil {
			res.Reasons = []string{"error executing lua checker: " + err.Error()}
			return res
		}

		score := float64(lua.LVAsNumber(c.vm.Get(-2)))
		reason := c.vm.ToString(-1)
		c.vm.Pop(2) // pop results from stack

		if score > 0 {
			res.Add(score, reason)
		}
		res.Clamp()
		return res
	}
}
