// Command devtoken prints an access token for local testing against a
// server sharing the same JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/seat-booking-core/internal/utils"
)

func main() {
	_ = godotenv.Load()

	sub := flag.String("sub", "1", "claimant id (sub claim)")
	role := flag.String("role", "CUSTOMER", "role claim: CUSTOMER or OWNER")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	at, err := utils.NewAccessToken(os.Getenv("JWT_SECRET"), *sub, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
	fmt.Println(at.Token)
}
