package account

import (
	"testing"

	"blitzscan/internal/history"
	"blitzscan/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileTable(t *testing.T) {
	user := &models.User{ID: "7", Email: "ana@example.com", FirstName: "Ana", Role: "analyst"}

	rows := ProfileTable(user, history.Stats{Total: 5, Completed: 4, LastWeek: 2})

	require.Len(t, rows, 9)
	assert.Equal(t, []string{"Nombre", "Ana"}, rows[0])
	assert.Equal(t, []string{"Organización", "-"}, rows[3])
	assert.Equal(t, []string{"Escaneos", "5"}, rows[6])
	assert.Equal(t, []string{"Última semana", "2"}, rows[8])
}

func TestPrompt_KeepsFlagValue(t *testing.T) {
	value := "from-flag"
	require.NoError(t, prompt(&value, "Correo", false))
	assert.Equal(t, "from-flag", value)
}
