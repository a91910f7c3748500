// internal/repository/mock_gen.go
package repository

//go:generate mockgen -source=./user.go -destination=../mocks/mock_user_repository.go -package=mocks UserRepositoryIface
//go:generate mockgen -source=./user_factor.go -destination=../mocks/mock_user_factor_repository.go -package=mocks UserFactorRepositoryIface
//go:generate mockgen -source=./organization.go -destination=../mocks/mock_organization_repository.go -package=mocks OrganizationRepositoryIface
//go:generate mockgen -source=./offering.go -destination=../mocks/mock_offering_repository.go -package=mocks OfferingRepositoryIface
//go:generate mockgen -source=./application.go -destination=../mocks/mock_application_repository.go -package=mocks ApplicationRepositoryIface
//go:generate mockgen -source=./notification.go -destination=../mocks/mock_notification_repository.go -package=mocks NotificationRepositoryIface
//go:generate mockgen -source=./document.go -destination=../mocks/mock_document_repository.go -package=mocks DocumentRepositoryIface
