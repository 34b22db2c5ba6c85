package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"runtime"
	"time"

	"github.com/and161185/foodpocket/internal/convert"
	"github.com/spf13/cobra"
)

// app carries the global flags shared by every command.
type app struct {
	addr    string
	timeout time.Duration
	out     io.Writer
}

func (a *app) client() *apiClient { return newAPIClient(a.addr) }

func (a *app) ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

// authed returns a form carrying the saved token.
func (a *app) authed() (url.Values, tokenFile, error) {
	tf, err := loadSession()
	if err != nil {
		return nil, tf, err
	}
	return url.Values{"user_token": {tf.Token}}, tf, nil
}

// pocketOr picks the --pocket flag or the pocket remembered at login.
func pocketOr(flag string, tf tokenFile) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if tf.PocketUID == "" {
		return "", errors.New("no pocket selected (use --pocket or fp pocket use)")
	}
	return tf.PocketUID, nil
}

// show prints the data of a response; an empty payload prints "ok".
func (a *app) show(raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	if s, ok := v.(string); ok && s == "" {
		_, err := fmt.Fprintln(a.out, "ok")
		return err
	}
	return printJSON(a.out, v)
}

// copyChanged moves flags the user actually set into form.
func copyChanged(cmd *cobra.Command, form url.Values, pairs map[string]string) {
	for flagName, key := range pairs {
		if f := cmd.Flags().Lookup(flagName); f != nil && f.Changed {
			form.Set(key, f.Value.String())
		}
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "fp",
		Short:         "FoodPocket command-line client",
		Long:          `fp talks to a FoodPocket server: keep pockets of restaurants, log visits and ask where to eat.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.addr, "addr", "http://localhost:8080", "server address")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(
		versionCmd(a),
		registerCmd(a),
		loginCmd(a),
		pocketsCmd(a),
		pocketCmd(a),
		restaurantsCmd(a),
		recommendCmd(a),
		restaurantCmd(a),
		visitsCmd(a),
		visitCmd(a),
	)
	return root
}

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(a.out, "fp %s (%s) %s\n", version, buildDate, runtime.Version())
		},
	}
}

// ---- accounts ----

func registerCmd(a *app) *cobra.Command {
	var username, password, email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			raw, err := a.client().post(ctx, "registerAccount", url.Values{
				"username": {username}, "password": {password}, "email": {email},
			})
			if err != nil {
				return err
			}
			return a.show(raw)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func loginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			raw, err := a.client().post(ctx, "loginAccount", url.Values{
				"username": {username}, "password": {password},
			})
			if err != nil {
				return err
			}
			var lg convert.Login
			if err := json.Unmarshal(raw, &lg); err != nil {
				return fmt.Errorf("decode login: %w", err)
			}
			exp, err := time.Parse(time.RFC3339, lg.ExpireTime)
			if err != nil {
				return fmt.Errorf("bad expire_time %q: %w", lg.ExpireTime, err)
			}
			if err := saveSession(tokenFile{
				Token:      lg.Token,
				ExpiresAt:  exp,
				PocketUID:  lg.LastPocket.PocketUID.String(),
				PocketName: lg.LastPocket.Name,
			}); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "logged in, pocket %q\n", lg.LastPocket.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// ---- pockets ----

func pocketsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pockets",
		Short: "List pockets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			form, _, err := a.authed()
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			raw, err := a.client().get(ctx, "getPocketList", form)
			if err != nil {
				return err
			}
			return a.show(raw)
		},
	}
}

func pocketCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "pocket", Short: "Manage pockets"}

	var note string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a pocket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, _, err := a.authed()
			if err != nil {
				return err
			}
			form.Set("name", args[0])
			form.Set("note", note)
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			raw, err := a.client().post(ctx, "newPocket", form)
			if err != nil {
				return err
			}
			return a.show(raw)
		},
	}
	add.Flags().StringVar(&note, "note", "", "note")

	edit := &cobra.Command{
		Use:   "edit POCKET_UID",
		Short: "Change name, note or status (ACTIVE, DELETED)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, _, err := a.authed()
			if err != nil {
				return err
			}
			form.Set("pocket_uid", args[0])
			copyChanged(cmd, form, map[string]string{"name": "name", "note": "note", "status": "status"})
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			raw, err := a.client().post(ctx, "editPocket", form)
			if err != nil {
				return err
			}
			return a.show(raw)
		},
	}
	edit.Flags().String("name", "", "new name")
	edit.Flags().String("note", "", "new note")
	edit.Flags().String("status", "", "new status")

	rm := &cobra.Command{
		Use:   "rm POCKET_UID",
		Short: "Delete a pocket with its restaurants and visits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, _, err := a.authed()
			if err != nil {
				return err
			}
			form.Set("pocket_uid", args[0])
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			raw, err := a.client().post(ctx, "removePocket", form)
			if err != nil {
				return err
			}
			return a.show(raw)
		},
	}

	use := &cobra.Command{
		Use:   "use POCKET_UID",
		Short: "Make a pocket the default for other commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			tf, err := loadSession()
			if err != nil {
				return err
			}
			tf.PocketUID, tf.PocketName = args[0], ""
			if err := saveSession(tf); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "ok")
			return nil
		},
	}

	cmd.AddCommand(add, edit, rm, use)
	return cmd
}

// ---- restaurants ----

// pocketListCmd builds a read-only command over one pocket.
func pocketListCmd(a *app, use, short, endpoint string) *cobra.Command {
	var pocket string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			form, tf, err := a.authed()
			if err != nil {
				return err
			}
			pid, err := pocketOr(pocket, tf)
			if err != nil {
				return err
			}
			form.Set("pocket_uid", pid)
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			raw, err := a.client().get(ctx, endpoint, form)
			if err != nil {
				return err
			}
			return a.show(raw)
		},
	}
	cmd.Flags().StringVar(&pocket, "pocket", "", "pocket uid (default: last used)")
	return cmd
}

func restaurantsCmd(a *app) *cobra.Command {
	return pocketListCmd(a, "restaurants", "List restaurants of a pocket", "getRestaurantList")
}

func recommendCmd(a *app) *cobra.Command {
	return pocketListCmd(a, "recommend", "Suggest where to eat today", "getRecommendList")
}

func restaurantCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "restaurant", Short: "Manage restaurants"}

	var pocket string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a restaurant, or return the existing one with that name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, tf, err := a.authed()
			if err != nil {
				return err
			}
			pid, err := pocketOr(pocket, tf)
			if err != nil {
				return err
			}
			form.Set("pocket_uid", pid)
			form.Set("name", args[0])
			copyChanged(cmd, form, map[string]string{
				"lng": "longitude", "lat": "latitude", "address": "address", "note": "note",
			})
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			raw, err := a.client().post(ctx, "newRestaurant", form)
			if err != nil {
				return err
			}
			return a.show(raw)
		},
	}
	add.Flags().StringVar(&pocket, "pocket", "", "pocket uid (default: last used)")
	add.Flags().Float64("lng", 0, "longitude")
	add.Flags().Float64("lat", 0, "latitude")
	add.Flags().String("address", "", "address")
	add.Flags().String("note", "", "note")

	edit := &cobra.Command{
		Use:   "edit RESTAURANT_UID",
		Short: "Change name, note, status (ACTIVE, RANDOM, HIDE, DELETED) or hide-until",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, _, err := a.authed()
			if err != nil {
				return err
			}
			form.Set("restaurant_uid", args[0])
			copyChanged(cmd, form, map[string]string{
				"name": "name", "note": "note", "status": "status", "hide-until": "hide_until",
			})
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			raw, err := a.client().post(ctx, "editRestaurant", form)
			if err != nil {
				return err
			}
			return a.show(raw)
		},
	}
	edit.Flags().String("name", "", "new name")
	edit.Flags().String("note", "", "new note")
	edit.Flags().String("status", "", "new status")
	edit.Flags().String("hide-until", "", "hide until YYYY-MM-DD")

	rm := &cobra.Command{
		Use:   "rm RESTAURANT_UID",
		Short: "Delete a restaurant with its visits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, _, err := a.authed()
			if err != nil {
				return err
			}
			form.Set("restaurant_uid", args[0])
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			raw, err := a.client().post(ctx, "removeRestaurant", form)
			if err != nil {
				return err
			}
			return a.show(raw)
		},
	}

	cmd.AddCommand(add, edit, rm)
	return cmd
}

// ---- visits ----

func visitsCmd(a *app) *cobra.Command {
	return pocketListCmd(a, "visits", "List visit records of a pocket", "getVisitRecords")
}

func visitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "visit", Short: "Manage visit records"}

	add := &cobra.Command{
		Use:   "add RESTAURANT_UID",
		Short: "Record a visit (default today, score 3)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, _, err := a.authed()
			if err != nil {
				return err
			}
			form.Set("restaurant_uid", args[0])
			copyChanged(cmd, form, map[string]string{"date": "visit_date", "score": "score"})
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			raw, err := a.client().post(ctx, "newVisit", form)
			if err != nil {
				return err
			}
			return a.show(raw)
		},
	}
	add.Flags().String("date", "", "visit date YYYY-MM-DD")
	add.Flags().Int("score", 3, "score 1-5")

	var date string
	edit := &cobra.Command{
		Use:   "edit VISITRECORD_UID",
		Short: "Move a visit to another date and optionally rescore it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, _, err := a.authed()
			if err != nil {
				return err
			}
			form.Set("visitrecord_uid", args[0])
			form.Set("visit_date", date)
			copyChanged(cmd, form, map[string]string{"score": "score"})
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			raw, err := a.client().post(ctx, "editVisitRecord", form)
			if err != nil {
				return err
			}
			return a.show(raw)
		},
	}
	edit.Flags().StringVar(&date, "date", "", "visit date YYYY-MM-DD")
	edit.Flags().Int("score", 3, "score 1-5")
	_ = edit.MarkFlagRequired("date")

	rm := &cobra.Command{
		Use:   "rm VISITRECORD_UID",
		Short: "Delete a visit record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, _, err := a.authed()
			if err != nil {
				return err
			}
			form.Set("visitrecord_uid", args[0])
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			raw, err := a.client().post(ctx, "removeVisitRecord", form)
			if err != nil {
				return err
			}
			return a.show(raw)
		},
	}

	cmd.AddCommand(add, edit, rm)
	return cmd
}
