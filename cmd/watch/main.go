// Command watch is a terminal dashboard: it logs in, loads the role-specific
// snapshot, subscribes to the donation change feed and keeps the partitioned
// lists reconciled live, printing them whenever they change.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"

	"github.com/sharebite/sharebite/internal/entity"
	donationDto "github.com/sharebite/sharebite/internal/modules/donation/dto"
	feedDto "github.com/sharebite/sharebite/internal/modules/feed/dto"
	userDto "github.com/sharebite/sharebite/internal/modules/user/dto"
	"github.com/sharebite/sharebite/pkg/reconciler"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "sharebite server base URL")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}

	client := resty.New().SetBaseURL(*serverURL)

	var auth userDto.AuthResponse
	resp, err := client.R().
		SetBody(userDto.LoginInput{Email: *email, Password: *password}).
		SetResult(&auth).
		Post("/api/auth/login")
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	if resp.IsError() {
		log.Fatalf("login failed: %s", resp.String())
	}

	client.SetAuthToken(auth.AccessToken)
	user := auth.User
	log.Printf("logged in as %s (%s)", user.Name, user.Role)

	dashboard := buildView(user)
	defer dashboard.Close()

	if err := loadSnapshot(client, user, dashboard); err != nil {
		log.Fatalf("snapshot failed: %v", err)
	}
	render(dashboard)

	wsURL, err := feedURL(*serverURL, auth.AccessToken)
	if err != nil {
		log.Fatalf("bad server URL: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("feed dial failed: %v", err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	events := make(chan feedDto.Event)
	go func() {
		defer close(events)
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var event feedDto.Event
			if err := json.Unmarshal(payload, &event); err != nil {
				log.Printf("bad feed payload: %v", err)
				continue
			}
			events <- event
		}
	}()

	// Single inbound queue per dashboard, drained in arrival order.
	for {
		select {
		case event, ok := <-events:
			if !ok {
				log.Println("feed closed")
				return
			}
			dashboard.Apply(event)
			render(dashboard)
		case <-interrupt:
			return
		}
	}
}

func buildView(user *entity.User) *reconciler.Dashboard {
	switch user.Role {
	case entity.RoleRecipient:
		return reconciler.RecipientView(user.ID, user.AcceptanceType)
	case entity.RoleVolunteer:
		return reconciler.VolunteerView(user.ID)
	default:
		return reconciler.DonorView(user.ID)
	}
}

func loadSnapshot(client *resty.Client, user *entity.User, dashboard *reconciler.Dashboard) error {
	switch user.Role {
	case entity.RoleRecipient:
		var snap donationDto.RecipientDashboard
		if err := fetchMine(client, &snap); err != nil {
			return err
		}
		dashboard.Load(snap.Claimed)
		dashboard.Load(snap.Picked)
		dashboard.Load(snap.Delivered)
		dashboard.Load(snap.Posted)
		dashboard.Load(snap.Diverted)
	case entity.RoleVolunteer:
		var snap donationDto.VolunteerDashboard
		if err := fetchMine(client, &snap); err != nil {
			return err
		}
		dashboard.Load(snap.Accepted)
		dashboard.Load(snap.Picked)
		dashboard.Load(snap.Delivered)
		dashboard.Load(snap.Confirmed)
		dashboard.Load(snap.Available)
	default:
		var snap donationDto.DonorDashboard
		if err := fetchMine(client, &snap); err != nil {
			return err
		}
		dashboard.Load(flatten(snap.Unclaimed))
		dashboard.Load(flatten(snap.InProgress))
		dashboard.Load(flatten(snap.Delivered))
	}
	return nil
}

func fetchMine(client *resty.Client, out interface{}) error {
	resp, err := client.R().SetResult(out).Get("/api/donations/mine")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("server: %s", resp.String())
	}
	return nil
}

func flatten(rows []donationDto.DonationWithOrganisation) []entity.Donation {
	out := make([]entity.Donation, len(rows))
	for i, row := range rows {
		out[i] = row.Donation
	}
	return out
}

func feedURL(base, token string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	default:
		parsed.Scheme = "ws"
	}
	parsed.Path = "/api/donations/ws"
	parsed.RawQuery = "token=" + url.QueryEscape(token)
	return parsed.String(), nil
}

func render(dashboard *reconciler.Dashboard) {
	var b strings.Builder
	for _, name := range dashboard.Lists() {
		items := dashboard.Items(name)
		fmt.Fprintf(&b, "%s (%d):", name, len(items))
		for _, d := range items {
			fmt.Fprintf(&b, " [%s %.1f %s #%s]", d.FoodType, d.Quantity, d.QuantityUnit, d.ID.String()[:8])
		}
		b.WriteString("\n")
	}
	fmt.Print(b.String())
	fmt.Println("---")
}
