package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/registry"
)

func echo(_ context.Context, call *registry.Call) (domain.Output, error) {
	return domain.Output{"result": call.Params.String("text")}, nil
}

func descriptor(name string) domain.ToolDescriptor {
	return domain.ToolDescriptor{
		Name:        name,
		Path:        "/text/" + name,
		Categories:  []string{"text"},
		DisplayName: name,
		Inputs: []domain.FieldSpec{
			{Name: "text", Kind: domain.KindString, Required: true},
		},
		Outputs: []domain.FieldSpec{
			{Name: "result", Kind: domain.KindString},
		},
	}
}

func TestRegistry_GetAndList(t *testing.T) {
	reg := registry.NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, reg.Register(descriptor(name), echo))
	}

	got, err := reg.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, descriptor("alpha"), got)

	var names []string
	for _, d := range reg.List() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
	assert.Equal(t, 3, reg.Len())
}

func TestRegistry_DuplicateLeavesRegistryUnchanged(t *testing.T) {
	reg := registry.NewRegistry()
	require.NoError(t, reg.Register(descriptor("echo"), echo))

	other := descriptor("echo")
	other.DisplayName = "Other"
	err := reg.Register(other, echo)
	assert.ErrorIs(t, err, domain.ErrDuplicateTool)

	got, err := reg.Get("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", got.DisplayName)
	assert.Len(t, reg.List(), 1)
}

func TestRegistry_InvalidDescriptor(t *testing.T) {
	reg := registry.NewRegistry()

	d := descriptor("broken")
	d.Inputs = append(d.Inputs, domain.FieldSpec{Name: "mode", Kind: domain.KindOptions})
	assert.ErrorIs(t, reg.Register(d, echo), domain.ErrInvalidDescriptor)

	d = descriptor("nofile")
	d.Inputs = append(d.Inputs, domain.FieldSpec{Name: "url", Kind: domain.KindFile})
	assert.ErrorIs(t, reg.Register(d, echo), domain.ErrInvalidDescriptor)

	d = descriptor("requireddefault")
	d.Inputs = append(d.Inputs, domain.FieldSpec{Name: "language", Kind: domain.KindString, Required: true, Default: "python"})
	assert.ErrorIs(t, reg.Register(d, echo), domain.ErrInvalidDescriptor)

	d = descriptor("nohandler")
	assert.ErrorIs(t, reg.Register(d, nil), domain.ErrInvalidDescriptor)

	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_NotFound(t *testing.T) {
	reg := registry.NewRegistry()

	_, err := reg.Get("missing")
	assert.ErrorIs(t, err, domain.ErrToolNotFound)

	_, err = reg.Lookup("missing")
	assert.ErrorIs(t, err, domain.ErrToolNotFound)
}

func TestRegistry_Sealed(t *testing.T) {
	reg := registry.NewRegistry()
	reg.MustRegister(descriptor("echo"), echo)
	reg.Seal()

	err := reg.Register(descriptor("late"), echo)
	assert.ErrorIs(t, err, domain.ErrRegistrySealed)

	entry, err := reg.Lookup("echo")
	require.NoError(t, err)
	assert.NotNil(t, entry.Handler)
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	reg := registry.NewRegistry()
	reg.MustRegister(descriptor("echo"), echo)
	assert.Panics(t, func() { reg.MustRegister(descriptor("echo"), echo) })
}
