// Package script compiles the equip and unequip hooks attached to item definitions. Hooks are
// expr-lang boolean expressions evaluated against the character that equips or unequips the item;
// a false result is a veto.
package script

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rotisserie/eris"
)

// Env is the environment a hook expression is evaluated in.
type Env struct {
	Level  int   `expr:"level"`
	Job    int   `expr:"job"`
	Zuly   int64 `expr:"zuly"`
	TeamID int   `expr:"team"`
}

// Program holds the compiled hooks of one item definition. An empty expression always allows.
type Program struct {
	name      string
	onEquip   *vm.Program
	onUnequip *vm.Program
}

// Compile compiles the equip and unequip expressions of the named item.
func Compile(name, onEquip, onUnequip string) (*Program, error) {
	p := &Program{name: name}

	var err error
	if p.onEquip, err = compile(onEquip); err != nil {
		return nil, eris.Wrapf(err, "item %s: invalid equip hook", name)
	}
	if p.onUnequip, err = compile(onUnequip); err != nil {
		return nil, eris.Wrapf(err, "item %s: invalid unequip hook", name)
	}
	return p, nil
}

func compile(expression string) (*vm.Program, error) {
	if expression == "" {
		return nil, nil //nolint:nilnil // absent hook
	}
	return expr.Compile(expression, expr.Env(Env{}), expr.AsBool())
}

// Name returns the name of the item the program was compiled for.
func (p *Program) Name() string {
	return p.name
}

// OnEquip reports whether the character described by env may equip the item.
func (p *Program) OnEquip(env Env) (bool, error) {
	return run(p.onEquip, env)
}

// OnUnequip reports whether the character described by env may unequip the item.
func (p *Program) OnUnequip(env Env) (bool, error) {
	return run(p.onUnequip, env)
}

func run(program *vm.Program, env Env) (bool, error) {
	if program == nil {
		return true, nil
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, eris.Wrap(err, "hook evaluation failed")
	}
	allowed, ok := out.(bool)
	if !ok {
		return false, eris.Errorf("hook returned %T, expected bool", out)
	}
	return allowed, nil
}
