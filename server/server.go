package main

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	helloworld "github.com/bitspv/helloworld-token"
	"github.com/bitspv/helloworld-token/overlay"
	"github.com/bitspv/helloworld-token/wallet"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
	With().Timestamp().Str("component", "server").Logger()

func main() {
	cfg := helloworld.ConfigFromEnv()

	client, err := buildClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}

	r := gin.Default()
	registerRoutes(r, client)

	log.Info().Str("listen", cfg.Listen).Str("network", string(cfg.Network)).Msg("serving")
	if err := r.Run(cfg.Listen); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func registerRoutes(r *gin.Engine, client *helloworld.Client) {
	r.POST("/api/token", issueHandler(client))
	r.POST("/api/token/update", updateHandler(client))
	r.POST("/api/token/redeem", redeemHandler(client))
	r.GET("/api/token", queryHandler(client))
	r.GET("/api/token/message/:message", findHandler(client))
}

// buildClient wires the default capabilities from the environment: a local
// wallet (seeded or ephemeral), and overlay broadcast/lookup on the
// configured network preset.
func buildClient(cfg helloworld.Config) (*helloworld.Client, error) {
	var w *wallet.Wallet
	var err error
	if cfg.WalletSeed != "" {
		w, err = wallet.FromMnemonic(cfg.WalletSeed, cfg.Network)
	} else {
		log.Warn().Msg("WALLET_SEED not set, using an ephemeral key")
		var priv *ec.PrivateKey
		priv, err = ec.NewPrivateKey()
		if err == nil {
			w, err = wallet.New(priv, cfg.Network)
		}
	}
	if err != nil {
		return nil, err
	}
	if cfg.FundingUTXOs != "" {
		utxos, err := wallet.LoadUTXOs(cfg.FundingUTXOs)
		if err != nil {
			return nil, err
		}
		for _, u := range utxos {
			w.AddUTXO(u)
		}
		log.Info().Int("utxos", len(utxos)).Msg("funding loaded")
	}

	b, err := overlay.NewBroadcaster([]string{helloworld.BroadcastTopic}, cfg.Network, cfg.OverlayHosts...)
	if err != nil {
		return nil, err
	}
	resolver, err := overlay.NewResolver(cfg.Network, cfg.OverlayHosts...)
	if err != nil {
		return nil, err
	}
	return helloworld.NewClient(w, b, resolver)
}

type issueRequest struct {
	Message string `json:"message" binding:"required"`
}

type tokenRequest struct {
	Txid          string                `json:"txid" binding:"required"`
	OutputIndex   uint32                `json:"outputIndex"`
	Message       string                `json:"message"`
	LockingScript string                `json:"lockingScript"`
	Satoshis      uint64                `json:"satoshis"`
	Beef          helloworld.ByteString `json:"beef"`
}

type updateRequest struct {
	Token   tokenRequest `json:"token" binding:"required"`
	Message string       `json:"message" binding:"required"`
}

type redeemRequest struct {
	Token tokenRequest `json:"token" binding:"required"`
}

func (r *tokenRequest) token() (*helloworld.Token, error) {
	txid, err := chainhash.NewHashFromHex(r.Txid)
	if err != nil {
		return nil, err
	}
	var lock *script.Script
	if r.LockingScript != "" {
		if lock, err = script.NewFromHex(r.LockingScript); err != nil {
			return nil, err
		}
	}
	return &helloworld.Token{
		Message:       r.Message,
		Outpoint:      transaction.Outpoint{Txid: *txid, Index: r.OutputIndex},
		LockingScript: lock,
		Satoshis:      r.Satoshis,
		Beef:          r.Beef,
	}, nil
}

func issueHandler(client *helloworld.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req issueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := client.Issue(c.Request.Context(), req.Message)
		if err != nil {
			log.Error().Err(err).Msg("issue")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		respondBroadcast(c, result)
	}
}

func updateHandler(client *helloworld.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		prior, err := req.Token.token()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := client.Update(c.Request.Context(), prior, req.Message)
		if err != nil {
			log.Error().Err(err).Msg("update")
			c.JSON(spendErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		respondBroadcast(c, result)
	}
}

func redeemHandler(client *helloworld.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req redeemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		prior, err := req.Token.token()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := client.Redeem(c.Request.Context(), prior)
		if err != nil {
			log.Error().Err(err).Msg("redeem")
			c.JSON(spendErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		respondBroadcast(c, result)
	}
}

func queryHandler(client *helloworld.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad limit"})
			return
		}
		skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad skip"})
			return
		}
		params := helloworld.QueryParams{
			Limit:       limit,
			Skip:        skip,
			SortOrder:   helloworld.SortOrder(c.DefaultQuery("sort", "desc")),
			Message:     c.Query("message"),
			StartDate:   c.Query("startDate"),
			EndDate:     c.Query("endDate"),
			IncludeBeef: c.Query("includeBeef") == "true",
		}
		started := time.Now()
		tokens, err := client.Query(c.Request.Context(), params)
		if err != nil {
			if errors.Is(err, helloworld.ErrInvalidQuery) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			log.Error().Err(err).Msg("query")
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		log.Debug().Int("results", len(tokens)).Dur("took", time.Since(started)).Msg("query")
		c.JSON(http.StatusOK, tokens)
	}
}

func findHandler(client *helloworld.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokens, err := client.FindByMessage(c.Request.Context(), c.Param("message"))
		if err != nil {
			log.Error().Err(err).Msg("find")
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, tokens)
	}
}

func respondBroadcast(c *gin.Context, result *helloworld.BroadcastResult) {
	if result.Ok() {
		c.JSON(http.StatusOK, result.Success)
		return
	}
	c.JSON(http.StatusBadGateway, result.Failure)
}

// spendErrorStatus maps the proof precondition failure to a client error;
// anything else is on the wallet or us.
func spendErrorStatus(err error) int {
	var missing *helloworld.MissingProofError
	if errors.As(err, &missing) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
