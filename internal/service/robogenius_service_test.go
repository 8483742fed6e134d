package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyhunko/academy-backend/internal/apperror"
	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/service"
)

func validRoboGenius() service.RoboGeniusInput {
	return service.RoboGeniusInput{
		Title:                   ptr("Junior Robotics"),
		Description:             ptr("Weekly robotics classes"),
		MonthlyPrice:            ptr(29.0),
		Category:                ptr("kids"),
		WhatYouLearnDescription: ptr("Sensors and motors"),
		Skills:                  ptr("soldering, coding"),
		TargetAudience:          ptr("ages 8-12"),
		Rating:                  ptr(4.5),
		VideoURL:                ptr("https://videos.local/intro"),
	}
}

func TestRoboGeniusService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates entry", func(t *testing.T) {
		// given
		store := newMemStore()
		rs := service.NewRoboGeniusService(store, &fakeImages{}, nil)

		// when
		entry, err := rs.CreateRoboGenius(ctx, validRoboGenius(), upload("robot.jpg"))

		// then
		require.NoError(t, err)
		assert.Equal(t, "Sensors and motors", entry.WhatYouLearn.Description)
		assert.Nil(t, entry.AnnualPrice)
		require.NotNil(t, entry.Image)
		assert.Equal(t, []string{model.EventRoboGeniusCreated}, store.eventTypes())
	})

	tests := []struct {
		name   string
		mutate func(in *service.RoboGeniusInput)
	}{
		{name: "rating above five", mutate: func(in *service.RoboGeniusInput) { in.Rating = ptr(6.0) }},
		{name: "missing rating", mutate: func(in *service.RoboGeniusInput) { in.Rating = nil }},
		{name: "negative monthly price", mutate: func(in *service.RoboGeniusInput) { in.MonthlyPrice = ptr(-1.0) }},
		{name: "negative annual price", mutate: func(in *service.RoboGeniusInput) { in.AnnualPrice = ptr(-10.0) }},
		{name: "missing video url", mutate: func(in *service.RoboGeniusInput) { in.VideoURL = nil }},
		{name: "missing skills", mutate: func(in *service.RoboGeniusInput) { in.Skills = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := service.NewRoboGeniusService(newMemStore(), &fakeImages{}, nil)
			in := validRoboGenius()
			tt.mutate(&in)

			_, err := rs.CreateRoboGenius(ctx, in, nil)

			require.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestRoboGeniusService_UpdateDelete(t *testing.T) {
	// given
	ctx := context.Background()
	images := &fakeImages{}
	rs := service.NewRoboGeniusService(newMemStore(), images, nil)
	entry, err := rs.CreateRoboGenius(ctx, validRoboGenius(), upload("a.png"))
	require.NoError(t, err)

	// when
	updated, err := rs.UpdateRoboGenius(ctx, entry.ID, service.RoboGeniusInput{AnnualPrice: ptr(0.0)}, upload("b.png"))

	// then
	require.NoError(t, err)
	require.NotNil(t, updated.AnnualPrice)
	assert.Zero(t, *updated.AnnualPrice)
	assert.Equal(t, []string{entry.Image.Filename}, images.deleted)

	_, err = rs.UpdateRoboGenius(ctx, entry.ID, service.RoboGeniusInput{}, nil)
	require.ErrorIs(t, err, apperror.ErrValidation)

	byCategory, err := rs.ListByCategory(ctx, "kids")
	require.NoError(t, err)
	assert.Len(t, byCategory, 1)

	require.NoError(t, rs.DeleteRoboGenius(ctx, entry.ID))
	_, err = rs.GetRoboGenius(ctx, entry.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound)

	all, err := rs.ListRoboGenius(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
