// Command qcctl is a terminal client for the cotaqc API: sign in with a PIN
// or manager credentials, list open work orders and download exports.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/xelth-com/cotaqc/internal/session"
)

type workOrder struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	DrawingCode string `json:"drawingCode"`
	Totals      struct {
		Expected int `json:"expected"`
		Measured int `json:"measured"`
		Pct      int `json:"pct"`
	} `json:"totals"`
	CreatedAt time.Time `json:"createdAt"`
}

type app struct {
	backend *session.HTTPBackend
	tracker *session.Tracker
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: qcctl <command> [flags]

commands:
  login   -pin 0420 | -email ana -password ...
  logout
  whoami
  ops     list open work orders
  export  -op <id> [-format csv|xlsx|pdf] [-o file]
`)
}

func main() {
	log.SetFlags(0)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	apiURL := os.Getenv("COTAQC_API")
	if apiURL == "" {
		apiURL = "http://localhost:3001"
	}
	path := os.Getenv("COTAQC_SESSION")
	if path == "" {
		var err error
		if path, err = session.DefaultPath(); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}

	a := &app{backend: session.NewHTTPBackend(apiURL)}
	a.tracker = session.NewTracker(a.backend, session.FileStore{Path: path})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cmd, args := os.Args[1], os.Args[2:]
	if cmd != "login" && cmd != "logout" {
		if err := a.tracker.Init(ctx); err != nil {
			log.Fatalf("❌ Cannot reach %s: %v", apiURL, err)
		}
	}

	var err error
	switch cmd {
	case "login":
		err = a.login(ctx, args)
	case "logout":
		err = a.tracker.SignOut()
		if err == nil {
			fmt.Println("👋 Signed out")
		}
	case "whoami":
		err = a.whoami()
	case "ops":
		err = a.ops(ctx)
	case "export":
		err = a.export(ctx, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	pin := fs.String("pin", "", "operator PIN")
	email := fs.String("email", "", "manager email or login")
	password := fs.String("password", "", "manager password (prompted when empty)")
	fs.Parse(args)

	var ident *session.Identity
	var err error
	switch {
	case *pin != "":
		ident, err = a.tracker.SignInOperator(ctx, *pin)
	case *email != "":
		if *password == "" {
			fmt.Print("Password: ")
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			*password = strings.TrimSpace(line)
		}
		ident, err = a.tracker.SignInManager(ctx, *email, *password)
	default:
		return errors.New("login needs -pin or -email")
	}
	if errors.Is(err, session.ErrInvalidPIN) {
		return errors.New("PIN must be exactly 4 digits")
	}
	if errors.Is(err, session.ErrUnauthorized) {
		return errors.New("invalid credentials")
	}
	if err != nil {
		return err
	}
	fmt.Printf("✅ Signed in as %s (%s)\n", ident.Email, ident.Role)
	return nil
}

func (a *app) whoami() error {
	ident := a.tracker.Identity()
	if ident == nil {
		fmt.Println("Not signed in")
		return nil
	}
	fmt.Printf("%s\t%s\t%s\n", ident.Email, ident.Role, ident.ID)
	return nil
}

func (a *app) token() (string, *session.Identity, error) {
	ident := a.tracker.Identity()
	token, err := a.tracker.AccessToken()
	if err != nil || ident == nil {
		return "", nil, errors.New("not signed in, run: qcctl login")
	}
	return token, ident, nil
}

func (a *app) ops(ctx context.Context) error {
	token, ident, err := a.token()
	if err != nil {
		return err
	}
	path := "/api/operador/ops"
	if ident.Role == "gestor" {
		path = "/api/gestor/ops?status=aberta"
	}
	var list []workOrder
	if err := a.backend.Do(ctx, token, http.MethodGet, path, nil, &list); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tDRAWING\tPROGRESS\tCREATED\tID")
	for _, wo := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d (%d%%)\t%s\t%s\n",
			wo.Code, wo.DrawingCode, wo.Totals.Measured, wo.Totals.Expected, wo.Totals.Pct,
			wo.CreatedAt.Local().Format("2006-01-02 15:04"), wo.ID)
	}
	return tw.Flush()
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	id := fs.String("op", "", "work order id")
	format := fs.String("format", "csv", "csv, xlsx or pdf")
	out := fs.String("o", "", "output file (default: server file name)")
	fs.Parse(args)

	if *id == "" {
		return errors.New("export needs -op")
	}
	endpoint, ok := map[string]string{
		"csv":  "export.csv",
		"xlsx": "export.xlsx",
		"pdf":  "relatorio.pdf",
	}[*format]
	if !ok {
		return fmt.Errorf("unknown format %q", *format)
	}
	token, _, err := a.token()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(".", ".qcctl-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	name, err := a.backend.Download(ctx, token, "/api/gestor/ops/"+*id+"/"+endpoint, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	target := *out
	if target == "" {
		target = filepath.Base(name)
		if target == "" || target == "." {
			target = *id + "." + *format
		}
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return err
	}
	fmt.Printf("📄 Saved %s\n", target)
	return nil
}
