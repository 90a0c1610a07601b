package server

import (
	"errors"
	"testing"

	ps "github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	pid  int
	name string
}

func (p fakeProcess) Pid() int { return p.pid }

func (p fakeProcess) PPid() int { return 1 }

func (p fakeProcess) Executable() string { return p.name }

func TestFindOtherInstance(t *testing.T) {
	t.Parallel()

	processes := []ps.Process{
		fakeProcess{pid: 10, name: "alarm-clockd"},
		fakeProcess{pid: 11, name: "bash"},
		nil,
		fakeProcess{pid: 12, name: "Alarm-Clockd.exe"},
	}

	require.Equal(t, 12, findOtherInstance(processes, 10, "alarm-clockd"))
	require.Equal(t, 10, findOtherInstance(processes, 12, "alarm-clockd.exe"))
	require.Zero(t, findOtherInstance(processes[:3], 10, "alarm-clockd"))
}

func TestEnsureSingleInstance(t *testing.T) {
	t.Parallel()

	require.NoError(t, ensureSingleInstance(func() ([]ps.Process, error) {
		return []ps.Process{fakeProcess{pid: 1, name: "init"}}, nil
	}))

	errList := errors.New("no procfs")
	require.ErrorIs(t, ensureSingleInstance(func() ([]ps.Process, error) {
		return nil, errList
	}), errList)
}

func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		config   string
		override string
		want     string
	}{
		{name: "override wins", config: "127.0.0.1:1", override: ":9090", want: ":9090"},
		{name: "loopback kept", config: "127.0.0.1:50061", want: "127.0.0.1:50061"},
		{name: "localhost kept", config: "localhost:50061", want: "localhost:50061"},
		{name: "remote host binds all", config: "alarm.lan:50061", want: ":50061"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolveListenAddress(tt.config, tt.override)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoServerAddress)

	_, err = resolveListenAddress("no-port", "")
	require.Error(t, err)
}
