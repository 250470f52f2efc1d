package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AliObeid01/dynamic-classified-api/app"
	"github.com/AliObeid01/dynamic-classified-api/app/ad"
	grpcinfra "github.com/AliObeid01/dynamic-classified-api/infra/grpc"
	"github.com/AliObeid01/dynamic-classified-api/infra/postgres"
	"github.com/AliObeid01/dynamic-classified-api/infra/rabbitmq"
	"github.com/AliObeid01/dynamic-classified-api/internal/middleware"
	"github.com/AliObeid01/dynamic-classified-api/pkg/aws"
	"github.com/AliObeid01/dynamic-classified-api/pkg/config"
	"github.com/AliObeid01/dynamic-classified-api/pkg/events"
	"github.com/AliObeid01/dynamic-classified-api/pkg/httperror"
)

type Request any
type Response any

type HandlerInterface[R Request, Res Response] interface {
	Handle(ctx context.Context, req *R) (*Res, error)
}

// statusCoder lets a response pick its own HTTP status (e.g. 201 on create).
type statusCoder interface {
	StatusCode() int
}

func handle[R Request, Res Response](handler HandlerInterface[R, Res]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req R

		if err := c.BodyParser(&req); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
			return writeError(c, httperror.BadRequest(
				"request.invalid_body",
				"Invalid body",
				fiber.Map{"error": err.Error()},
			))
		}

		if err := c.ParamsParser(&req); err != nil {
			return writeError(c, httperror.BadRequest(
				"request.invalid_path_params",
				"Invalid path params",
				fiber.Map{"error": err.Error()},
			))
		}

		if err := c.QueryParser(&req); err != nil {
			return writeError(c, httperror.BadRequest(
				"request.invalid_query_params",
				"Invalid query params",
				fiber.Map{"error": err.Error()},
			))
		}

		if err := c.ReqHeaderParser(&req); err != nil {
			return writeError(c, httperror.BadRequest(
				"request.invalid_headers",
				"Invalid headers",
				fiber.Map{"error": err.Error()},
			))
		}

		ctx := c.UserContext()
		// handlers dealing with multipart uploads need the raw fiber context
		ctx = context.WithValue(ctx, "fiber", c)

		res, err := handler.Handle(ctx, &req)
		if err != nil {
			return writeError(c, err)
		}

		if sc, ok := any(res).(statusCoder); ok {
			return c.Status(sc.StatusCode()).JSON(res)
		}

		return c.JSON(res)
	}
}

func main() {
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, _ := zapConfig.Build()
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	appConfig := config.Read()
	zap.L().Info("app starting...")
	zap.L().Info("app config", zap.Any("appConfig", appConfig))

	fiberApp := fiber.New(fiber.Config{
		IdleTimeout:  5 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		Concurrency:  256 * 1024,
	})

	pgRepository := postgres.NewPgRepository(
		appConfig.PostgresHost,
		appConfig.PostgresDatabase,
		appConfig.PostgresUsername,
		appConfig.PostgresPassword,
		appConfig.PostgresPort,
	)
	defer pgRepository.Close()

	var publisher events.Publisher
	if appConfig.RabbitMQURL != "" {
		rabbitPublisher, err := rabbitmq.NewRabbitMQPublisher(appConfig.RabbitMQURL, appConfig.ServiceName)
		if err != nil {
			zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rabbitPublisher.Close()

		if err := rabbitPublisher.DeclareExchange(events.AdExchange); err != nil {
			zap.L().Fatal("Failed to declare exchange", zap.Error(err))
		}

		publisher = rabbitPublisher
	} else {
		zap.L().Warn("RABBITMQ_URL not set, event publishing disabled")
	}

	bucket := aws.NewS3Bucket(appConfig)
	imagesBaseURL := fmt.Sprintf("%s/%s", appConfig.AWSEndpoint, appConfig.AWSBucket)

	getCategoriesHandler := app.NewGetCategoriesHandler(pgRepository)
	getCategoryFieldsHandler := app.NewGetCategoryFieldsHandler(pgRepository)
	getAdHandler := ad.NewGetAdHandler(pgRepository)
	getAdImagesHandler := app.NewGetAdImagesHandler(pgRepository)
	createAdHandler := ad.NewCreateAdHandler(pgRepository, publisher)
	myAdsHandler := ad.NewMyAdsHandler(pgRepository)
	uploadAdImageHandler := app.NewUploadAdImageHandler(pgRepository, bucket, publisher, imagesBaseURL)
	deleteAdImageHandler := app.NewDeleteAdImageHandler(pgRepository, bucket, publisher, imagesBaseURL)

	publicRoutes := fiberApp.Group("/api/v1")
	publicRoutes.Get("/categories", handle[app.GetCategoriesRequest, app.GetCategoriesResponse](getCategoriesHandler))
	publicRoutes.Get("/categories/:id/fields", handle[app.GetCategoryFieldsRequest, app.GetCategoryFieldsResponse](getCategoryFieldsHandler))
	publicRoutes.Get("/ads/:id", handle[ad.GetAdRequest, ad.GetAdResponse](getAdHandler))
	publicRoutes.Get("/ads/:id/images", handle[app.GetAdImagesRequest, app.GetAdImagesResponse](getAdImagesHandler))

	authRoutes := publicRoutes.Group("", middleware.NewAuthMiddleware())
	authRoutes.Post("/ads", handle[ad.CreateAdRequest, ad.CreateAdResponse](createAdHandler))
	authRoutes.Get("/my-ads", handle[ad.MyAdsRequest, ad.MyAdsResponse](myAdsHandler))
	authRoutes.Post("/ads/:id/images", handle[app.UploadAdImageRequest, app.UploadAdImageResponse](uploadAdImageHandler))
	authRoutes.Delete("/ads/:id/images/:imageId", handle[app.DeleteAdImageRequest, app.DeleteAdImageResponse](deleteAdImageHandler))

	grpcServer, err := grpcinfra.NewServer(appConfig)
	if err != nil {
		zap.L().Fatal("Failed to create gRPC server", zap.Error(err))
	}

	go func() {
		if err := grpcServer.Start(); err != nil {
			zap.L().Error("gRPC server error", zap.Error(err))
		}
	}()

	go func() {
		if err := fiberApp.Listen(fmt.Sprintf("0.0.0.0:%s", appConfig.Port)); err != nil {
			zap.L().Error("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	zap.L().Info("Server started on port", zap.String("port", appConfig.Port))

	gracefulShutdown(fiberApp, grpcServer)
}

func gracefulShutdown(fiberApp *fiber.App, grpcServer *grpcinfra.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	zap.L().Info("Shutting down server...")

	if err := fiberApp.ShutdownWithTimeout(5 * time.Second); err != nil {
		zap.L().Error("Error during server shutdown", zap.Error(err))
	}

	if err := grpcServer.GracefulStop(); err != nil {
		zap.L().Error("Error during gRPC shutdown", zap.Error(err))
	}

	zap.L().Info("Server gracefully stopped")
}

func writeError(c *fiber.Ctx, err error) error {
	var httpErr *httperror.Error
	if errors.As(err, &httpErr) {
		payload := fiber.Map{
			"success": false,
			"message": httpErr.Message,
		}

		if httpErr.Details != nil {
			if httpErr.Status == fiber.StatusUnprocessableEntity {
				payload["errors"] = httpErr.Details
			} else {
				payload["details"] = httpErr.Details
			}
		}

		if httpErr.Status >= fiber.StatusInternalServerError {
			zap.L().Error("Handler returned server error", zap.String("code", httpErr.Code), zap.Error(httpErr))
		} else {
			zap.L().Warn("Handler returned client error", zap.String("code", httpErr.Code), zap.Error(httpErr))
		}

		return c.Status(httpErr.Status).JSON(payload)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		zap.L().Warn("Fiber validation error", zap.String("message", fiberErr.Message), zap.Error(err))
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"success": false,
			"message": fiberErr.Message,
		})
	}

	zap.L().Error("Unhandled error", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Internal server error.",
	})
}
