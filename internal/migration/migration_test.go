package migration

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_offerings.sql": {Data: []byte("CREATE TABLE b();")},
		"migrations/0001_init.sql":      {Data: []byte("CREATE TABLE a();")},
		"migrations/0010_late.sql":      {Data: []byte("CREATE TABLE c();")},
	}

	all, err := Load(fsys)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{all[0].Version, all[1].Version, all[2].Version})
	assert.Equal(t, "CREATE TABLE a();", all[0].SQL)

	pending := Pending(all, 2)
	require.Len(t, pending, 1)
	assert.Equal(t, "0010_late.sql", pending[0].Name)
}

func TestLoadRejectsBadNames(t *testing.T) {
	_, err := Load(fstest.MapFS{"migrations/init.sql": {Data: []byte("")}})
	assert.Error(t, err)

	_, err = Load(fstest.MapFS{
		"migrations/0001_a.sql": {Data: []byte("")},
		"migrations/001_b.sql":  {Data: []byte("")},
	})
	assert.ErrorContains(t, err, "share version 1")
}
