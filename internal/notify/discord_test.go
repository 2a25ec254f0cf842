package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscordNotifier_SendPriceDrop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		drop       PriceDropPayload
		statusCode int
		wantErr    bool
		errMsg     string
		wantColor  int
	}{
		{
			name: "25 percent drop uses green",
			drop: PriceDropPayload{
				ProductTitle: "Widget",
				ProductURL:   "https://example.com/widget",
				HighAmount:   10000,
				NewAmount:    7500,
			},
			statusCode: http.StatusNoContent,
			wantColor:  colorGreen,
		},
		{
			name: "12 percent drop uses yellow",
			drop: PriceDropPayload{
				ProductTitle: "Widget",
				ProductURL:   "https://example.com/widget",
				HighAmount:   10000,
				NewAmount:    8800,
			},
			statusCode: http.StatusNoContent,
			wantColor:  colorYellow,
		},
		{
			name: "6 percent drop uses orange",
			drop: PriceDropPayload{
				ProductTitle: "Widget",
				ProductURL:   "https://example.com/widget",
				HighAmount:   10000,
				NewAmount:    9400,
			},
			statusCode: http.StatusNoContent,
			wantColor:  colorOrange,
		},
		{
			name: "discord returns 429 rate limited",
			drop: PriceDropPayload{
				ProductTitle: "Widget",
				HighAmount:   10000,
				NewAmount:    7500,
			},
			statusCode: http.StatusTooManyRequests,
			wantErr:    true,
			errMsg:     "rate limited",
		},
		{
			name: "discord returns 400 error",
			drop: PriceDropPayload{
				ProductTitle: "Widget",
				HighAmount:   10000,
				NewAmount:    7500,
			},
			statusCode: http.StatusBadRequest,
			wantErr:    true,
			errMsg:     "discord returned 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got discordWebhookPayload
			srv := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
					w.WriteHeader(tt.statusCode)
				},
			))
			defer srv.Close()

			d := NewDiscordNotifier(srv.URL, WithHTTPClient(srv.Client()))
			err := d.SendPriceDrop(context.Background(), tt.drop)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			require.Len(t, got.Embeds, 1)
			embed := got.Embeds[0]
			assert.Equal(t, tt.wantColor, embed.Color)
			assert.Contains(t, embed.Title, "Price Drop")
			require.Len(t, embed.Fields, 3)
			assert.Equal(t, "Was", embed.Fields[0].Name)
		})
	}
}

func TestDropPercent(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 25.0, PriceDropPayload{HighAmount: 10000, NewAmount: 7500}.DropPercent(), 0.001)
	assert.InDelta(t, 0.0, PriceDropPayload{HighAmount: 0, NewAmount: 0}.DropPercent(), 0.001)
}
