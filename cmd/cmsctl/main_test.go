package main

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petermazzocco/precast-cms/internal/pager"
	"github.com/petermazzocco/precast-cms/internal/store"
	"github.com/petermazzocco/precast-cms/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticPages(pages ...[]models.Contact) (pager.Fetcher[models.Contact], *int) {
	calls := 0
	return func(ctx context.Context, cursor string, limit int) (store.Page[models.Contact], error) {
		i := 0
		if cursor != "" {
			i = int(cursor[0] - '0')
		}
		calls++
		page := store.Page[models.Contact]{Items: pages[i]}
		if i+1 < len(pages) {
			page.NextCursor = string(rune('0' + i + 1))
		}
		return page, nil
	}, &calls
}

func TestBrowse_NextPrevQuit(t *testing.T) {
	fetch, calls := staticPages(
		[]models.Contact{{Name: "alice"}},
		[]models.Contact{{Name: "bob"}},
	)

	var out bytes.Buffer
	a := &app{in: bufio.NewReader(strings.NewReader("n\nn\np\nn\nq\n")), out: &out}
	b := newBrowser(pager.New[models.Contact](fetch, 1), printContacts)

	require.NoError(t, a.browse(context.Background(), b))

	text := out.String()
	assert.Equal(t, 2, strings.Count(text, "alice"))
	assert.Equal(t, 2, strings.Count(text, "bob"))
	assert.Contains(t, text, pager.ErrNoMorePages.Error())
	assert.Equal(t, 2, *calls)
}

func TestBrowse_EOFEndsSession(t *testing.T) {
	fetch, _ := staticPages([]models.Contact{{Name: "alice"}})
	var out bytes.Buffer
	a := &app{in: bufio.NewReader(strings.NewReader("")), out: &out}

	require.NoError(t, a.browse(context.Background(), newBrowser(pager.New[models.Contact](fetch, 5), printContacts)))
	assert.Contains(t, out.String(), "alice")
	assert.NotContains(t, out.String(), "[n]ext")
}

func TestRootCmd_RejectsBadArguments(t *testing.T) {
	for name, args := range map[string][]string{
		"unknown command":  {"publish"},
		"missing id":       {"delete-image"},
		"extra id":         {"delete-project", "a", "b"},
		"missing file":     {"upload", "--title", "Wall panel"},
		"positional login": {"login", "admin@x.com"},
	} {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := newRootCmd(strings.NewReader(""), &out)
			cmd.SetErr(&out)
			cmd.SetArgs(append([]string{"--server", "http://127.0.0.1:1", "--session", filepath.Join(t.TempDir(), "s.json")}, args...))
			assert.Error(t, cmd.ExecuteContext(context.Background()))
		})
	}
}

func TestRootCmd_ListsSubcommands(t *testing.T) {
	cmd := newRootCmd(strings.NewReader(""), &bytes.Buffer{})
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"login", "logout", "contacts", "gallery", "projects", "upload", "delete-image", "delete-project"} {
		assert.Contains(t, names, want)
	}
}
