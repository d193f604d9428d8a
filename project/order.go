package project

import (
	"github.com/kbukum/forge/errors"
	"github.com/kbukum/forge/logger"
)

// Order is the result of BuildOrder.
type Order struct {
	// Packages lists every reachable package after its dependencies.
	Packages []*Package
	// Unresolved names dependencies missing from the available set, in the
	// order they were first encountered.
	Unresolved []string
}

// Names returns the ordered package names.
func (o *Order) Names() []string {
	names := make([]string, len(o.Packages))
	for i, p := range o.Packages {
		names[i] = p.Name
	}
	return names
}

type mark int

const (
	white mark = iota
	gray
	black
)

type orderer struct {
	available map[string]*Package
	marks     map[string]mark
	missing   map[string]bool
	stack     []string
	order     *Order
	log       *logger.Logger
}

// BuildOrder returns requested and their transitive dependencies from
// available, each after all of its dependencies and each once. Names that
// are not available are skipped and collected in Order.Unresolved. A cyclic
// dependency is a DEPENDENCY_CYCLE error naming the cycle.
func BuildOrder(available map[string]*Package, requested []*Package) (*Order, error) {
	o := &orderer{
		available: available,
		marks:     make(map[string]mark),
		missing:   make(map[string]bool),
		order:     &Order{},
		log:       logger.Get("project"),
	}
	for _, p := range requested {
		if err := o.expand(p.Name); err != nil {
			return nil, err
		}
	}
	return o.order, nil
}

func (o *orderer) expand(name string) error {
	p, ok := o.available[name]
	if !ok {
		if !o.missing[name] {
			o.missing[name] = true
			o.order.Unresolved = append(o.order.Unresolved, name)
			o.log.Warn("could not resolve package", logger.Fields(logger.FieldPackage, name))
		}
		return nil
	}

	switch o.marks[name] {
	case black:
		return nil
	case gray:
		return errors.DependencyCycle(o.cycle(name))
	}

	o.marks[name] = gray
	o.stack = append(o.stack, name)
	for _, dep := range p.Depends {
		if err := o.expand(dep); err != nil {
			return err
		}
	}
	o.stack = o.stack[:len(o.stack)-1]
	o.marks[name] = black
	o.order.Packages = append(o.order.Packages, p)
	return nil
}

func (o *orderer) cycle(name string) []string {
	for i, n := range o.stack {
		if n == name {
			path := append([]string(nil), o.stack[i:]...)
			return append(path, name)
		}
	}
	return []string{name, name}
}
