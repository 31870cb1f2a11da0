package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"notekeeper/internal/library"
)

func TestLibraryExportProducesPDF(t *testing.T) {
	lib := library.New(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	lib = append(lib, &library.Folder{
		ID:    primitive.NewObjectID(),
		Name:  "Work",
		Color: library.Palette[1],
		Order: 2,
		Notes: []library.Note{
			{
				ID:        primitive.NewObjectID(),
				Title:     "Quarterly report",
				Body:      "draft the numbers section",
				UpdatedAt: "2024-01-01 09:00:00",
			},
		},
	})

	out, err := NewPDF().Library(lib)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	require.Equal(t, "%PDF", string(out[:4]))
}

func TestNotesExportProducesPDF(t *testing.T) {
	notes := []library.Note{
		{
			ID:          primitive.NewObjectID(),
			Title:       "Trashed note",
			Body:        "kept for the backup",
			Trashed:     true,
			DeletedDate: "2024-01-15 10:00:00",
			UpdatedAt:   "2024-01-01 10:00:00",
		},
	}

	out, err := NewPDF().Notes("Bin backup", notes)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	require.Equal(t, "%PDF", string(out[:4]))
}

func TestNotesExportEmptyList(t *testing.T) {
	out, err := NewPDF().Notes("Bin backup", nil)
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(out[:4]))
}
