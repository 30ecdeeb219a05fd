// Package stdbot — админ/релей-воркер Hybrid ShieldBot. Бот:
//   - подчиняется только владельцу (OWNER_ID), остальных игнорирует;
//   - хранит настройку в БД: /set_group (инбокс-группа),
//     /set_session (токен бота-отправителя), /status, /start;
//   - зеркалит входящие лички (задачи NEW_DM из MongoDB) в темы
//     инбокс-группы — по теме на отправителя;
//   - собирает ответы владельца на зеркала и открывает задачи для
//     защищённой отправки (READY_TO_SEND);
//   - /send_protected <chat_id> ответом на контент — ручная отправка.
//
// Сам std-бот никогда не пишет end-юзерам: финальная отправка — только
// через воркер user (см. пакет userbot). Мост между воркерами — MongoDB.
//
// Жизненный цикл:
//   - Создать через New(token, ownerID, store, hub, log).
//   - Start()/Stop(), либо Run(ctx) до отмены контекста.
package stdbot
