package server_test

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/fnb-console/apiclient"
	"github.com/jrsteele09/fnb-console/auth"
	"github.com/jrsteele09/fnb-console/fnb"
	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/jrsteele09/fnb-console/internal/utils"
	"github.com/jrsteele09/fnb-console/oauthmodel"
	fakesessionrepo "github.com/jrsteele09/fnb-console/sessions/repofakes"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type consoleClient struct {
	http    *http.Client
	session *auth.Service
	fnb     *fnb.Service
}

func newConsoleClient(t *testing.T, e *testEnv, jar http.CookieJar) *consoleClient {
	t.Helper()
	httpClient := &http.Client{Jar: jar, Timeout: 5 * time.Second}

	session, err := auth.NewService(
		apiclient.New(e.account.URL, apiclient.WithHTTPClient(httpClient)),
		fakesessionrepo.NewFakeSessionRepo(),
		auth.WithNowTime(e.clock.Now),
	)
	require.NoError(t, err)

	data := apiclient.New(e.fnb.URL, apiclient.WithHTTPClient(httpClient), apiclient.WithSession(session))
	return &consoleClient{http: httpClient, session: session, fnb: fnb.NewService(data)}
}

func newJar(t *testing.T) http.CookieJar {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return jar
}

func TestConsole_OnboardAndRecoverAfterExpiry(t *testing.T) {
	e := newTestEnv(t)
	c := newConsoleClient(t, e, newJar(t))
	ctx := context.Background()

	require.NoError(t, c.session.Login(ctx, auth.Credentials{Username: seedUsername, Password: seedPassword, ClientUsername: "harbour"}))
	require.Equal(t, "HARBOUR", c.session.Tenant().ClientUsername)

	result, err := c.fnb.Onboard(ctx, fnb.RestaurantDraft{
		Restaurant: fnb.Restaurant{RestaurantName: "Harbour Kitchen", Number: "0851234567"},
		Schedule: &fnb.Schedule{
			OperationalDays: []string{"mon", "tue"},
			StartTime:       utils.Ptr("10:00:00"),
			EndTime:         utils.Ptr("22:00:00"),
			OrderAllowed:    true,
		},
		BlockedDays: &fnb.BlockedDaysDraft{Orders: true, Bookings: true, StartDate: "2026-12-24", EndDate: "2026-12-26"},
		TableBooking: &fnb.TableBookingDraft{
			NumberOfTables:  "12",
			MinimumPeople:   "2",
			CanCancelBefore: "90",
		},
		OrderConfig: &fnb.OrderConfig{GSTPercentage: 5},
		CoverImage:  &apiclient.File{Filename: "cover.png", Content: strings.NewReader("cover")},
	})
	require.NoError(t, err)
	require.True(t, result.OK())
	require.NotZero(t, result.RestaurantID)
	require.NotZero(t, result.ScheduleID)

	blocked, err := c.fnb.BlockedDays.List(ctx, url.Values{"restaurant": {strconv.FormatInt(result.RestaurantID, 10)}})
	require.NoError(t, err)
	require.Len(t, blocked, 2)

	bookings, err := c.fnb.TableBookings.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, bookings, 1)

	covers, err := c.fnb.CoverImages.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, covers, 1)
	require.Equal(t, result.RestaurantID, covers[0].Restaurant)

	before := c.session.AccessToken()
	e.clock.Advance(6 * time.Minute)

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.fnb.Restaurants.List(ctx, nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.NotEqual(t, before, c.session.AccessToken())
	require.Equal(t, 1.0, testutil.ToFloat64(e.server.Metrics().AuthTotal.WithLabelValues("refresh", "ok")),
		"concurrent expired requests share one refresh")

	restaurants, err := c.fnb.Restaurants.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, restaurants, 1)
	require.Equal(t, 1.0, testutil.ToFloat64(e.server.Metrics().AuthTotal.WithLabelValues("refresh", "ok")))
}

func TestConsole_LogoutDropsCredentials(t *testing.T) {
	e := newTestEnv(t)
	c := newConsoleClient(t, e, newJar(t))
	ctx := context.Background()

	require.NoError(t, c.session.Login(ctx, auth.Credentials{Username: seedUsername, Password: seedPassword}))
	_, err := c.fnb.Restaurants.List(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, c.session.Logout(ctx))
	require.False(t, c.session.IsAuthenticated())

	_, err = c.fnb.Restaurants.List(ctx, nil)
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, oauthmodel.DetailCredentialsMissing, apiErr.Detail, "no Authorization header is sent")
}

func TestConsole_BootstrapFromCookie(t *testing.T) {
	e := newTestEnv(t)
	jar := newJar(t)
	ctx := context.Background()

	first := newConsoleClient(t, e, jar)
	require.NoError(t, first.session.Login(ctx, auth.Credentials{Username: seedUsername, Password: seedPassword}))

	second := newConsoleClient(t, e, jar)
	require.False(t, second.session.IsAuthenticated())
	require.True(t, second.session.Bootstrap(ctx))
	require.Equal(t, seedUsername, second.session.Tenant().Username)

	_, err := second.fnb.Restaurants.List(ctx, nil)
	require.NoError(t, err)
}

func TestConsole_WrongPassword(t *testing.T) {
	e := newTestEnv(t)
	c := newConsoleClient(t, e, newJar(t))

	err := c.session.Login(context.Background(), auth.Credentials{Username: seedUsername, Password: "wrong"})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	require.False(t, c.session.IsAuthenticated())
}
