package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/auth"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/models"
	"github.com/Lokesh-Karthik/Skilldom-testrepo/internal/services"
)

func newSearchFixture(t *testing.T) (*services.SearchService, *profileFixture) {
	t.Helper()
	fix := newProfileFixture(t)
	ctx := context.Background()

	alice := &auth.Session{UserID: "alice", Email: "alice@example.com", Name: "Alice"}
	_, err := fix.pipeline.Apply(ctx, alice, &models.UpdateProfileRequest{
		Location:    strPtr("San Francisco, CA"),
		Gender:      strPtr(models.GenderFemale),
		DateOfBirth: strPtr("1995-03-15"),
		SkillsToTeach: &[]models.TeachSkill{
			{Name: "React", Rating: 5},
		},
		SkillsToLearn: &[]string{"Python"},
		Interests:     &[]string{"Photography", "Hiking"},
	})
	require.NoError(t, err)

	bob := &auth.Session{UserID: "bob", Email: "bob@example.com", Name: "Bob"}
	_, err = fix.pipeline.Apply(ctx, bob, &models.UpdateProfileRequest{
		Location:    strPtr("New York, NY"),
		Gender:      strPtr(models.GenderMale),
		DateOfBirth: strPtr("1990-07-20"),
		SkillsToTeach: &[]models.TeachSkill{
			{Name: "Python", Rating: 5},
			{Name: "Machine Learning", Rating: 4},
		},
		SkillsToLearn: &[]string{"React"},
		Interests:     &[]string{"Gaming"},
	})
	require.NoError(t, err)

	return services.NewSearchService(fix.store, fix.resolver, zap.NewNop()), fix
}

func resultIDs(results []models.PublicProfile) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.UserID
	}
	return ids
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("excludes the viewer", func(t *testing.T) {
		search, _ := newSearchFixture(t)

		results, err := search.Search(ctx, "alice", models.SearchFilters{})
		require.NoError(t, err)
		assert.Equal(t, []string{"bob"}, resultIDs(results))
	})

	t.Run("location is a case-insensitive substring match", func(t *testing.T) {
		search, _ := newSearchFixture(t)

		results, err := search.Search(ctx, "carol", models.SearchFilters{Location: "san francisco"})
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, resultIDs(results))
	})

	t.Run("matches any of the wanted teach skills", func(t *testing.T) {
		search, _ := newSearchFixture(t)

		results, err := search.Search(ctx, "carol", models.SearchFilters{
			SkillsToTeach: []string{"machine"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"bob"}, resultIDs(results))
	})

	t.Run("filters by gender and age range", func(t *testing.T) {
		search, _ := newSearchFixture(t)

		results, err := search.Search(ctx, "carol", models.SearchFilters{Gender: models.GenderMale})
		require.NoError(t, err)
		assert.Equal(t, []string{"bob"}, resultIDs(results))

		// Both fixtures were born well before 2000.
		results, err = search.Search(ctx, "carol", models.SearchFilters{MinAge: 25})
		require.NoError(t, err)
		assert.Len(t, results, 2)

		results, err = search.Search(ctx, "carol", models.SearchFilters{MaxAge: 20})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("combines filters", func(t *testing.T) {
		search, _ := newSearchFixture(t)

		results, err := search.Search(ctx, "carol", models.SearchFilters{
			Interests: []string{"photo"},
			Location:  "CA",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, resultIDs(results))

		results, err = search.Search(ctx, "carol", models.SearchFilters{
			Interests: []string{"photo"},
			Location:  "NY",
		})
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
