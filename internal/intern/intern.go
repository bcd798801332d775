// Package intern maps identifier and property-key text to small integer
// symbols, shared by the AST and the bytecode constant pool.
package intern

import "sync"

// Symbol is a small integer standing in for interned text.
type Symbol uint32

// Table interns strings to Symbols and back.
type Table struct {
	mu      sync.RWMutex
	byText  map[string]Symbol
	byIndex []string
}

// NewTable creates an empty interning table.
func NewTable() *Table {
	return &Table{byText: make(map[string]Symbol, 64)}
}

// Intern returns the Symbol for s, allocating a new one on first use.
func (t *Table) Intern(s string) Symbol {
	t.mu.RLock()
	if sym, ok := t.byText[s]; ok {
		t.mu.RUnlock()
		return sym
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if sym, ok := t.byText[s]; ok {
		return sym
	}
	sym := Symbol(len(t.byIndex))
	t.byIndex = append(t.byIndex, s)
	t.byText[s] = sym
	return sym
}

// Text returns the original text for sym.
func (t *Table) Text(sym Symbol) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(sym) < len(t.byIndex) {
		return t.byIndex[sym]
	}
	return ""
}

// Lookup returns the Symbol for s without interning it.
func (t *Table) Lookup(s string) (Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sym, ok := t.byText[s]
	return sym, ok
}

// Len reports how many distinct strings have been interned.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byIndex)
}
