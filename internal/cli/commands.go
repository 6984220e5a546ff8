package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/acqbridge/internal/acq"
	"github.com/dmitrijs2005/acqbridge/internal/common"
	"github.com/dmitrijs2005/acqbridge/internal/order"
	"github.com/dmitrijs2005/acqbridge/internal/vault"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getMultiline = GetMultiline

// Setup chooses the unlock password. It refuses to overwrite an existing
// complete password record; use Clear first to start over.
func (a *App) Setup(ctx context.Context) error {
	password, err := getPassword(os.Stdout, "Choose a password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := CheckPasswordStrength(string(password)); err != nil {
		return err
	}

	confirm, err := getPassword(os.Stdout, "Repeat password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(password) != string(confirm) {
		return errors.New("passwords do not match")
	}

	if err := a.vault.SetPassword(ctx, password); err != nil {
		if errors.Is(err, common.ErrAlreadySet) {
			return errors.New("a password is already set; run 'clear' to start over")
		}
		return err
	}

	fmt.Println("Password set.")
	return nil
}

// Save prompts for the acquisitions API key and region and stores the key
// encrypted. Requires the unlock password to authorize the write.
func (a *App) Save(ctx context.Context) error {
	apiKey, err := getSimpleText(a.reader, "Enter API key", os.Stdout)
	if err != nil {
		return err
	}
	if strings.TrimSpace(apiKey) == "" {
		return errors.New("api key must not be empty")
	}

	regionText, err := getSimpleText(a.reader, "Region (na/eu, default na)", os.Stdout)
	if err != nil {
		return err
	}
	region, err := acq.ParseRegion(regionText)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.vault.SaveCredential(ctx, []byte(apiKey), password); err != nil {
		return err
	}
	if err := a.settings.Set(ctx, vault.KeyRegion, []byte(region)); err != nil {
		return err
	}

	// refresh the session so the key is immediately usable
	a.session.Lock()
	a.session.AutoUnlock(ctx)

	fmt.Println("API key saved.")
	return nil
}

// Unlock verifies the password and loads the credential into the session.
func (a *App) Unlock(ctx context.Context) error {
	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Unlock(ctx, password); err != nil {
		return err
	}

	fmt.Println("Unlocked.")
	return nil
}

// Reveal prints the stored API key in clear text.
func (a *App) Reveal(ctx context.Context) error {
	value, err := a.session.Reveal(ctx)
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

// Status reports whether a password is set, whether an encrypted key is
// stored, the session state and the configured region.
func (a *App) Status(ctx context.Context) error {
	hasPassword, err := a.vault.HasPassword(ctx)
	if err != nil {
		return err
	}
	hasCredential, err := a.vault.HasEncryptedCredential(ctx)
	if err != nil {
		return err
	}
	region, err := a.loadRegion(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("password set:     %v\n", hasPassword)
	fmt.Printf("api key stored:   %v\n", hasCredential)
	fmt.Printf("session unlocked: %v\n", a.isUnlocked())
	fmt.Printf("region:           %s\n", region)
	return nil
}

// Funds searches acquisition funds by name.
func (a *App) Funds(ctx context.Context, query string) error {
	client, err := a.apiClient(ctx)
	if err != nil {
		return err
	}

	funds, err := client.ListFunds(ctx, query, 0, 0)
	if err != nil {
		return err
	}

	fmt.Printf("%d fund(s):\n", funds.TotalRecordCount)
	for _, f := range funds.Funds {
		fmt.Printf("  %-12s %s\n", f.Code, f.Name)
	}
	printQuota(client)
	return nil
}

// Users searches staff users by any identifier.
func (a *App) Users(ctx context.Context, query string) error {
	client, err := a.apiClient(ctx)
	if err != nil {
		return err
	}

	users, err := client.SearchUsers(ctx, query, 0, 0)
	if err != nil {
		return err
	}

	fmt.Printf("%d user(s):\n", users.TotalRecordCount)
	for _, u := range users.Users {
		fmt.Printf("  %-16s %s\n", u.PrimaryID, u.FullName)
	}
	printQuota(client)
	return nil
}

// Table fetches a configuration code table by name.
func (a *App) Table(ctx context.Context, name string) error {
	client, err := a.apiClient(ctx)
	if err != nil {
		return err
	}

	table, err := client.GetCodeTable(ctx, name)
	if err != nil {
		return err
	}

	fmt.Printf("%s:\n", table.Name)
	for _, row := range table.Rows {
		fmt.Printf("  %-24s %s\n", row.Code, row.Description)
	}
	printQuota(client)
	return nil
}

// Order interactively builds a purchase-order line and submits it.
func (a *App) Order(ctx context.Context) error {
	client, err := a.apiClient(ctx)
	if err != nil {
		return err
	}

	item := order.ScrapedItem{}
	if item.Title, err = getSimpleText(a.reader, "Title", os.Stdout); err != nil {
		return err
	}
	if item.Price, err = getSimpleText(a.reader, "Price (e.g. 31.99 or $31.99)", os.Stdout); err != nil {
		return err
	}
	if item.Currency, err = getSimpleText(a.reader, "Currency (e.g. USD)", os.Stdout); err != nil {
		return err
	}
	if item.Vendor, err = getSimpleText(a.reader, "Vendor code", os.Stdout); err != nil {
		return err
	}
	if item.Identifier, err = getSimpleText(a.reader, "ISBN (optional)", os.Stdout); err != nil {
		return err
	}

	opts := order.Options{}
	if opts.OwnerCode, err = getSimpleText(a.reader, "Owning library code", os.Stdout); err != nil {
		return err
	}
	if opts.FundCode, err = getSimpleText(a.reader, "Fund code", os.Stdout); err != nil {
		return err
	}
	if opts.InterestedUserID, err = getSimpleText(a.reader, "Interested user ID (optional)", os.Stdout); err != nil {
		return err
	}
	if opts.Note, err = getMultiline(a.reader, "Note (optional)", os.Stdout); err != nil {
		return err
	}

	line, err := order.BuildPOLine(item, opts)
	if err != nil {
		return err
	}

	created, err := client.CreatePOLine(ctx, line)
	if err != nil {
		return err
	}

	fmt.Printf("Created PO line %s (%s)\n", created.Number, created.ResourceMetadata.Title)
	printQuota(client)
	return nil
}

// Lock drops the in-memory credential. The encrypted copy stays on disk.
func (a *App) Lock(ctx context.Context) error {
	a.session.Lock()
	fmt.Println("Locked.")
	return nil
}

// Clear wipes the stored credential, verifier and password material after
// an explicit confirmation.
func (a *App) Clear(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "Wipe the stored API key and password? (yes/no)", os.Stdout)
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Println("Aborted.")
		return nil
	}

	a.session.Lock()
	if err := a.vault.Clear(ctx); err != nil {
		return err
	}

	fmt.Println("Cleared.")
	return nil
}

func (a *App) apiClient(ctx context.Context) (acq.API, error) {
	apiKey, ok := a.session.GetUsableCredential(ctx)
	if !ok {
		return nil, errors.New("no usable api key; run 'setup' and 'save' first")
	}

	region, err := a.loadRegion(ctx)
	if err != nil {
		return nil, err
	}

	return a.newClient(region, apiKey)
}

func (a *App) loadRegion(ctx context.Context) (acq.Region, error) {
	raw, err := a.settings.Get(ctx, vault.KeyRegion)
	if err != nil {
		return "", err
	}
	return acq.ParseRegion(string(raw))
}

func printQuota(client acq.API) {
	if q := client.RemainingQuota(); q >= 0 {
		fmt.Printf("(api requests remaining: %d)\n", q)
	}
}
