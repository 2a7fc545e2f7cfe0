package recordstore

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dxcccii/taskdesk/internal/services/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storeSeq atomic.Int64

func newTestCSVStore(t *testing.T) *csvStore {
	t.Helper()

	baseURL := fmt.Sprintf("mem://localhost/taskdesk-test/%d", storeSeq.Add(1))
	store, err := NewCSVStore(baseURL)
	require.NoError(t, err)
	return store
}

func TestCSVStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestCSVStore(t)

	records := []tasks.Task{
		{ID: "T1", Description: "wash bike", Status: tasks.StatusInProgress, Holder: "Cl1"},
		{ID: "T2", Description: "repair tire", Status: tasks.StatusUnallocated},
		{ID: "T3", Description: "task, with comma", Status: tasks.StatusCompleted, Holder: "Cl2"},
	}

	require.NoError(t, store.Save(ctx, "Service_A", records))

	loaded, err := store.Load(ctx, "Service_A")
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestCSVStore_LoadUnknownService(t *testing.T) {
	store := newTestCSVStore(t)

	_, err := store.Load(context.Background(), "Service_X")
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestCSVStore_Services(t *testing.T) {
	ctx := context.Background()
	store := newTestCSVStore(t)

	require.NoError(t, store.Save(ctx, "Service_A", nil))
	require.NoError(t, store.Save(ctx, "Service_B", nil))

	services, err := store.Services(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Service_A", "Service_B"}, services)
}

func TestCSVStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := newTestCSVStore(t)

	require.NoError(t, store.Save(ctx, "Service_A", []tasks.Task{
		{ID: "T1", Description: "wash bike", Status: tasks.StatusUnallocated},
		{ID: "T2", Description: "repair tire", Status: tasks.StatusUnallocated},
	}))
	require.NoError(t, store.Save(ctx, "Service_A", []tasks.Task{
		{ID: "T1", Description: "wash bike", Status: tasks.StatusCompleted, Holder: "Cl1"},
	}))

	loaded, err := store.Load(ctx, "Service_A")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, tasks.StatusCompleted, loaded[0].Status)
}

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    []tasks.Task
		wantErr bool
	}{
		{
			name: "full rows with header",
			data: "task_id,description,status,holder\nT1,wash bike,Unallocated,\nT2,repair tire,InProgress,Cl1\n",
			want: []tasks.Task{
				{ID: "T1", Description: "wash bike", Status: tasks.StatusUnallocated},
				{ID: "T2", Description: "repair tire", Status: tasks.StatusInProgress, Holder: "Cl1"},
			},
		},
		{
			name: "no header",
			data: "T1,wash bike,Unallocated,\n",
			want: []tasks.Task{
				{ID: "T1", Description: "wash bike", Status: tasks.StatusUnallocated},
			},
		},
		{
			name: "legacy three-field row without holder",
			data: "T1,wash bike,Completed\n",
			want: []tasks.Task{
				{ID: "T1", Description: "wash bike", Status: tasks.StatusCompleted},
			},
		},
		{
			name: "legacy two-field row uses description as id",
			data: "wash bike,Unallocated\n",
			want: []tasks.Task{
				{ID: "wash bike", Description: "wash bike", Status: tasks.StatusUnallocated},
			},
		},
		{
			name: "status is case-insensitive and holder cleared when unallocated",
			data: "T1,wash bike,unallocated,Cl1\n",
			want: []tasks.Task{
				{ID: "T1", Description: "wash bike", Status: tasks.StatusUnallocated},
			},
		},
		{
			name:    "unknown status",
			data:    "T1,wash bike,Paused,\n",
			wantErr: true,
		},
		{
			name:    "too few fields",
			data:    "T1\n",
			wantErr: true,
		},
		{
			name: "empty file",
			data: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeRecords([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeRecords_WritesHeader(t *testing.T) {
	data, err := encodeRecords([]tasks.Task{
		{ID: "T1", Description: "wash bike", Status: tasks.StatusUnallocated},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "task_id,description,status,holder", lines[0])
	assert.Equal(t, "T1,wash bike,Unallocated,", lines[1])
}
