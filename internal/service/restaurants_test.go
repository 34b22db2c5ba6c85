package service

import (
	"context"
	"testing"
	"time"

	"github.com/and161185/foodpocket/internal/errs"
	"github.com/and161185/foodpocket/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestaurant_FindOrCreate(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	owner, pocket := f.owner()

	a, err := f.restaurants.Create(ctx, owner, pocket, model.RestaurantInput{Name: "Noodle Bar", Longitude: 1.5})
	require.NoError(t, err)
	r := f.store.rests[a]
	assert.Equal(t, model.RestaurantRandom, r.Status)
	assert.Equal(t, f.clock.Today(), r.HideUntil)
	assert.Equal(t, 1.5, r.Longitude)

	again, err := f.restaurants.Create(ctx, owner, pocket, model.RestaurantInput{Name: "Noodle Bar"})
	require.NoError(t, err)
	assert.Equal(t, a, again)

	require.NoError(t, f.restaurants.Remove(ctx, owner, a))
	fresh, err := f.restaurants.Create(ctx, owner, pocket, model.RestaurantInput{Name: "Noodle Bar"})
	require.NoError(t, err)
	assert.NotEqual(t, a, fresh)

	_, err = f.restaurants.Create(ctx, owner, pocket, model.RestaurantInput{})
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = f.restaurants.Create(ctx, owner, uuid.Must(uuid.NewV4()), model.RestaurantInput{Name: "X"})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRestaurant_CreateInDeletedPocket(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	owner, _ := f.owner()
	p, err := f.pockets.Create(ctx, owner, "Gone", "")
	require.NoError(t, err)
	require.NoError(t, f.pockets.Remove(ctx, owner, p))

	_, err = f.restaurants.Create(ctx, owner, p, model.RestaurantInput{Name: "X"})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRestaurant_Edit(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	owner, pocket := f.owner()
	today := f.clock.Today()

	id, err := f.restaurants.Create(ctx, owner, pocket, model.RestaurantInput{Name: "A"})
	require.NoError(t, err)
	_, err = f.restaurants.Create(ctx, owner, pocket, model.RestaurantInput{Name: "B"})
	require.NoError(t, err)

	var ve *errs.ValidationError
	err = f.restaurants.Edit(ctx, owner, id, model.RestaurantEdit{Name: ptr("B")})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Repeated Name", ve.Msg)

	require.NoError(t, f.restaurants.Edit(ctx, owner, id, model.RestaurantEdit{Name: ptr("A")}), "unchanged name")

	err = f.restaurants.Edit(ctx, owner, id, model.RestaurantEdit{Note: ptr("n"), HideUntil: ptr("2100/12/01")})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Wrong hide_until format, should be YYYY-MM-DD", ve.Msg)
	assert.Empty(t, f.store.rests[id].Note, "nothing written on failure")

	err = f.restaurants.Edit(ctx, owner, id, model.RestaurantEdit{Status: ptr("SLEEPING")})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Undefined status", ve.Msg)

	// explicit hide_until wins over the status side effect
	require.NoError(t, f.restaurants.Edit(ctx, owner, id, model.RestaurantEdit{Status: ptr("ACTIVE"), HideUntil: ptr("2100-12-01")}))
	r := f.store.rests[id]
	assert.Equal(t, model.RestaurantActive, r.Status)
	assert.Equal(t, time.Date(2100, 12, 1, 0, 0, 0, 0, time.UTC), r.HideUntil)
	assert.Equal(t, "HIDE", r.StatusLabel(today))

	// HIDE keeps the stored status and resets hide_until
	require.NoError(t, f.restaurants.Edit(ctx, owner, id, model.RestaurantEdit{Status: ptr("HIDE")}))
	r = f.store.rests[id]
	assert.Equal(t, model.RestaurantActive, r.Status)
	assert.Equal(t, today, r.HideUntil)

	require.NoError(t, f.restaurants.Edit(ctx, owner, id, model.RestaurantEdit{Status: ptr("DELETED")}))
	err = f.restaurants.Edit(ctx, owner, id, model.RestaurantEdit{Status: ptr("ACTIVE")})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Cannot edit status for deleted restaurant", ve.Msg)

	err = f.restaurants.Edit(ctx, uuid.Must(uuid.NewV4()), id, model.RestaurantEdit{Note: ptr("x")})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRestaurant_HideNeverStored(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	owner, pocket := f.owner()

	id, err := f.restaurants.Create(ctx, owner, pocket, model.RestaurantInput{Name: "A"})
	require.NoError(t, err)
	for _, label := range []string{"ACTIVE", "HIDE", "RANDOM", "HIDE"} {
		require.NoError(t, f.restaurants.Edit(ctx, owner, id, model.RestaurantEdit{Status: ptr(label)}))
		assert.NotEqual(t, model.RestaurantHide, f.store.rests[id].Status)
	}
}

func TestRestaurant_RemoveCascades(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	owner, pocket := f.owner()

	id, err := f.restaurants.Create(ctx, owner, pocket, model.RestaurantInput{Name: "A"})
	require.NoError(t, err)
	for range 3 {
		_, err = f.visits.Create(ctx, owner, id, model.VisitInput{})
		require.NoError(t, err)
	}
	require.NoError(t, f.restaurants.Remove(ctx, owner, id))

	live, err := f.visits.List(ctx, owner, pocket)
	require.NoError(t, err)
	assert.Empty(t, live)
	assert.Nil(t, f.store.rests[id].LastVisit)

	require.ErrorIs(t, f.restaurants.Remove(ctx, uuid.Must(uuid.NewV4()), id), errs.ErrNotFound)
}

func TestRestaurant_List(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	owner, pocket := f.owner()

	a, err := f.restaurants.Create(ctx, owner, pocket, model.RestaurantInput{Name: "A"})
	require.NoError(t, err)
	b, err := f.restaurants.Create(ctx, owner, pocket, model.RestaurantInput{Name: "B"})
	require.NoError(t, err)
	c, err := f.restaurants.Create(ctx, owner, pocket, model.RestaurantInput{Name: "C"})
	require.NoError(t, err)

	for _, d := range []string{"2024-05-01", "2024-05-03", "2024-05-05", "2024-05-07", "2024-05-09"} {
		_, err = f.visits.Create(ctx, owner, a, model.VisitInput{VisitDate: ptr(d)})
		require.NoError(t, err)
	}
	_, err = f.visits.Create(ctx, owner, b, model.VisitInput{VisitDate: ptr("2024-05-20")})
	require.NoError(t, err)

	list, err := f.restaurants.List(ctx, owner, pocket)
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, b, list[0].ID)
	assert.Equal(t, a, list[1].ID)
	assert.Equal(t, c, list[2].ID)

	assert.Equal(t, 5, list[1].Visited)
	require.Len(t, list[1].VisitDates, 5)
	assert.Equal(t, "2024-05-09", model.FormatDate(list[1].VisitDates[0]))
	assert.Equal(t, 0, list[2].Visited)
	assert.NotNil(t, list[2].VisitDates)
	assert.Equal(t, "RANDOM", list[2].Status)

	assert.Equal(t, fixedNow, *f.store.pockets[pocket].LastUseTime)

	_, err = f.restaurants.List(ctx, uuid.Must(uuid.NewV4()), pocket)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRestaurant_Recommend(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	owner, pocket := f.owner()
	today := f.clock.Today()
	day := func(back int) *string { return ptr(model.FormatDate(today.AddDate(0, 0, -back))) }

	mk := func(name, status string) uuid.UUID {
		id, err := f.restaurants.Create(ctx, owner, pocket, model.RestaurantInput{Name: name})
		require.NoError(t, err)
		require.NoError(t, f.restaurants.Edit(ctx, owner, id, model.RestaurantEdit{Status: ptr(status)}))
		return id
	}
	visit := func(id uuid.UUID, back int) {
		_, err := f.visits.Create(ctx, owner, id, model.VisitInput{VisitDate: day(back)})
		require.NoError(t, err)
	}

	often := mk("often", "ACTIVE") // 5 visits in the last 30 days
	for _, back := range []int{8, 10, 12, 14, 16} {
		visit(often, back)
	}
	weekly := mk("weekly", "ACTIVE") // 2 visits in the last 7 days
	visit(weekly, 1)
	visit(weekly, 3)
	old := mk("old", "ACTIVE")
	visit(old, 20)
	visit(old, 40)
	fresh := mk("fresh", "ACTIVE")
	lucky := mk("lucky", "RANDOM")
	hidden := mk("hidden", "ACTIVE")
	require.NoError(t, f.restaurants.Edit(ctx, owner, hidden, model.RestaurantEdit{HideUntil: ptr("2100-01-01")}))

	f.restaurants.draw = func() int { return 51 }
	got, err := f.restaurants.Recommend(ctx, owner, pocket)
	require.NoError(t, err)

	ids := make([]uuid.UUID, len(got))
	for i, b := range got {
		ids[i] = b.ID
	}
	assert.Equal(t, []uuid.UUID{old, fresh, lucky}, ids)
	assert.Equal(t, 2, got[0].VisitCount)
	assert.Equal(t, today.AddDate(0, 0, -20), *got[0].LastVisit)

	f.restaurants.draw = func() int { return 50 }
	got, err = f.restaurants.Recommend(ctx, owner, pocket)
	require.NoError(t, err)
	require.Len(t, got, 2, "RANDOM needs a draw above 50")
}

func TestRestaurant_RecommendDeletedPocket(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	owner, _ := f.owner()
	p, err := f.pockets.Create(ctx, owner, "Gone", "")
	require.NoError(t, err)
	require.NoError(t, f.pockets.Remove(ctx, owner, p))

	_, err = f.restaurants.Recommend(ctx, owner, p)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
